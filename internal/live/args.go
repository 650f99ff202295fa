package live

import (
	"fmt"

	"github.com/HendryAvila/ableton-mcp/internal/osc"
)

func intArg(args []any, i int) (int, bool) { return osc.Int(args, i) }

func floatAt(address string, args []any, i int) (float64, error) {
	v, ok := osc.Float(args, i)
	if !ok {
		return 0, fmt.Errorf("%w: %s: want number at %d, got %v", ErrUnexpectedReply, address, i, args)
	}
	return v, nil
}

func intAt(address string, args []any, i int) (int, error) {
	v, ok := osc.Int(args, i)
	if !ok {
		return 0, fmt.Errorf("%w: %s: want integer at %d, got %v", ErrUnexpectedReply, address, i, args)
	}
	return v, nil
}

func boolAt(address string, args []any, i int) (bool, error) {
	v, ok := osc.Bool(args, i)
	if !ok {
		return false, fmt.Errorf("%w: %s: want boolean at %d, got %v", ErrUnexpectedReply, address, i, args)
	}
	return v, nil
}

func stringAt(address string, args []any, i int) (string, error) {
	v, ok := osc.String(args, i)
	if !ok {
		return "", fmt.Errorf("%w: %s: want string at %d, got %v", ErrUnexpectedReply, address, i, args)
	}
	return v, nil
}

// stringsOf collects every string value in args.
func stringsOf(args []any) []string {
	out := make([]string, 0, len(args))
	for i := range args {
		if s, ok := osc.String(args, i); ok {
			out = append(out, s)
		}
	}
	return out
}
