package cmd

const (
	RootCmdName  = "carscout"
	RootCmdShort = "Vehicle search and shopping assistant backend"
	RootCmdLong  = `carscout searches live dealership inventory by structured filters or free-text
descriptions, ranks and diversifies the results, and serves a conversational
shopping assistant next to dealer lookup and finance quotes.`

	ServeCmdName  = "serve"
	ServeCmdShort = "Start the HTTP API"
	ServeCmdLong  = "Start the HTTP API and serve until interrupted."

	DealersCmdName  = "dealers"
	DealersCmdShort = "Print the dealer registry"
	DealersCmdLong  = "Print the configured dealer registry as YAML."

	SearchCmdName  = "search [description]"
	SearchCmdShort = "Run a free-text search from the command line"
	SearchCmdLong  = "Extract filters from a description, search every dealer and print the diversified result as JSON."
)
