package errors

import (
	"errors"
	"fmt"
)

// ErrorDump is a log-friendly rendering of an error chain.
type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`
	Field      string `json:"field,omitempty"`

	Chain []string `json:"chain,omitempty"`
	// Joined lists the members of an aggregated error (errors.Join / multierr).
	Joined []string `json:"joined,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
	}

	if te := As(err); te != nil {
		d.Code = te.Code()
		d.Field = te.Field()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, member := range joined.Unwrap() {
			d.Joined = append(d.Joined, member.Error())
		}
	}

	return d
}
