package renderer

import "fmt"

// WebKit and Gecko are baseline comparison targets. Neither ships an
// embeddable Go driver on this platform, so their constructors report
// unavailability; with `--renderer all` the run skips them, while naming
// one explicitly is a configuration error.

func newWebKit() (Engine, error) {
	return nil, fmt.Errorf("%w: webkit baseline not available on this platform", ErrUnavailable)
}

func newGecko() (Engine, error) {
	return nil, fmt.Errorf("%w: gecko baseline not available on this platform", ErrUnavailable)
}
