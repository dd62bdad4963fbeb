package fetcher

import (
	"fmt"

	"pixelpeek/internal/imagemeta"
)

// Kind classifies an Outcome.
type Kind int

const (
	// Success means the image header was decoded.
	Success Kind = iota
	// NetworkError covers transport failures and non-200 responses.
	NetworkError
	// DecodeError means the body was fetched but is not a supported image.
	DecodeError
)

// CauseTimeout is reported for URLs abandoned by a batch deadline.
const CauseTimeout = "timeout"

// String returns the label used in metrics, logs and the history database.
func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case NetworkError:
		return "network_error"
	case DecodeError:
		return "decode_error"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "success":
		return Success, nil
	case "network_error":
		return NetworkError, nil
	case "decode_error":
		return DecodeError, nil
	}
	return 0, fmt.Errorf("unknown outcome kind %q", s)
}

// Outcome is the terminal result of processing one URL.
type Outcome struct {
	Index      int                `json:"index"`
	URL        string             `json:"url"`
	Kind       Kind               `json:"kind"`
	Meta       imagemeta.Metadata `json:"meta,omitzero"`
	StatusCode int                `json:"statusCode,omitempty"`
	Cause      string             `json:"cause,omitempty"`
}

// OK reports whether the outcome is a Success.
func (o Outcome) OK() bool {
	return o.Kind == Success
}

// NetworkFailure builds a NetworkError outcome.
func NetworkFailure(index int, url string, statusCode int, cause string) Outcome {
	return Outcome{Index: index, URL: url, Kind: NetworkError, StatusCode: statusCode, Cause: cause}
}

// DecodeFailure builds a DecodeError outcome.
func DecodeFailure(index int, url string, cause string) Outcome {
	return Outcome{Index: index, URL: url, Kind: DecodeError, Cause: cause}
}

// Succeeded builds a Success outcome.
func Succeeded(index int, url string, meta imagemeta.Metadata) Outcome {
	return Outcome{Index: index, URL: url, Kind: Success, Meta: meta}
}
