package common

import (
	"encoding/json"
	"fmt"
	"os"
)

type ciResult struct {
	Check   string   `json:"check"`
	OK      bool     `json:"ok"`
	Details []string `json:"details,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// PrintCIResult writes a single machine-readable result line to stdout for
// non-interactive runs.
func PrintCIResult(ok bool, check string, details []string, err error) {
	res := ciResult{Check: check, OK: ok, Details: details}
	if err != nil {
		res.Error = err.Error()
	}
	out, marshalErr := json.Marshal(res)
	if marshalErr != nil {
		fmt.Fprintf(os.Stderr, "marshal ci result: %v\n", marshalErr)
		return
	}
	fmt.Println(string(out))
}
