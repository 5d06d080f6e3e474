package main

import "github.com/nekruzvatanshoev/carscout/pkg/cmd"

func main() {
	cmd.Execute()
}
