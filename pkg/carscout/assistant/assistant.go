// Package assistant answers shopper questions about the vehicles currently on
// screen. It keeps no state between calls.
package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/nekruzvatanshoev/carscout/pkg/carscout/dal"
	"github.com/nekruzvatanshoev/carscout/pkg/carscout/llm"
)

// MaxVehicles caps how many visible vehicles are sent as context.
const MaxVehicles = 12

const systemPrompt = `You are a friendly, concise car shopping assistant for a group of dealerships.
You may only discuss the vehicles listed under "Visible vehicles". Never mention, recommend or
invent any vehicle, price or dealer that is not in that list. If the shopper asks for something
the list cannot satisfy, say so and suggest they refine their search.
Refer to vehicles by year, make, model and trim, and quote prices exactly as listed.`

// Request is one assistant turn.
type Request struct {
	History  []llm.Message `json:"messages"`
	Vehicles []dal.Vehicle `json:"vehicles"`
	Query    string        `json:"query"`
}

// Assistant builds prompts and delegates generation to a Completer.
type Assistant struct {
	llm llm.Completer
}

func New(completer llm.Completer) *Assistant {
	return &Assistant{llm: completer}
}

// Reply returns the complete assistant answer.
func (a *Assistant) Reply(ctx context.Context, req Request) (string, error) {
	msgs, err := Prompt(req)
	if err != nil {
		return "", err
	}
	return a.llm.Complete(ctx, msgs)
}

// Stream delivers the answer incrementally through onChunk.
func (a *Assistant) Stream(ctx context.Context, req Request, onChunk func(string) error) error {
	msgs, err := Prompt(req)
	if err != nil {
		return err
	}
	return a.llm.Stream(ctx, msgs, onChunk)
}

// Prompt assembles the full conversation sent to the model.
func Prompt(req Request) ([]llm.Message, error) {
	history := make([]llm.Message, 0, len(req.History))
	for _, m := range req.History {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		switch m.Role {
		case llm.RoleUser, llm.RoleAssistant:
			history = append(history, m)
		default:
			return nil, dal.ValidationError(fmt.Sprintf("unsupported message role %q", m.Role))
		}
	}
	if len(history) == 0 && strings.TrimSpace(req.Query) == "" {
		return nil, dal.ValidationError("a query or at least one message is required")
	}

	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: systemPrompt + "\n\n" + contextBlock(req)})
	msgs = append(msgs, history...)
	if len(history) == 0 {
		msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: req.Query})
	}
	return msgs, nil
}

func contextBlock(req Request) string {
	var sb strings.Builder
	if q := strings.TrimSpace(req.Query); q != "" {
		fmt.Fprintf(&sb, "Original search: %s\n\n", q)
	}

	vehicles := req.Vehicles
	if len(vehicles) > MaxVehicles {
		vehicles = vehicles[:MaxVehicles]
	}
	sb.WriteString("Visible vehicles:\n")
	if len(vehicles) == 0 {
		sb.WriteString("(none)\n")
	}
	for i, v := range vehicles {
		fmt.Fprintf(&sb, "%d. %s", i+1, v.Title())
		if v.ExteriorColor != "" {
			fmt.Fprintf(&sb, ", %s", v.ExteriorColor)
		}
		fmt.Fprintf(&sb, ", %s, $%.0f", v.Condition(), v.EffectivePrice())
		if v.SalePrice > 0 && v.SalePrice < v.Price {
			fmt.Fprintf(&sb, " (was $%.0f)", v.Price)
		}
		fmt.Fprintf(&sb, ", %d mi", v.Mileage)
		if v.CityMPG > 0 || v.HighwayMPG > 0 {
			fmt.Fprintf(&sb, ", %d/%d mpg", v.CityMPG, v.HighwayMPG)
		}
		for _, s := range []string{v.BodyStyle, v.FuelType, v.Drivetrain} {
			if s != "" {
				fmt.Fprintf(&sb, ", %s", s)
			}
		}
		if v.ID != "" {
			fmt.Fprintf(&sb, " [id %s]", v.ID)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
