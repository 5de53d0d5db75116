package thread

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
)

// LoadSpec decodes a TOML thread spec. Fields missing from r keep their
// DefaultSpec values and unknown keys are an error. The result is not
// normalized.
func LoadSpec(r io.Reader) (Spec, error) {
	s := DefaultSpec()
	if err := decodeStrict(r, &s); err != nil {
		return Spec{}, err
	}
	return s, nil
}

// LoadSpecFile reads a spec with LoadSpec from the named file.
func LoadSpecFile(name string) (Spec, error) {
	fp, err := os.Open(name)
	if err != nil {
		return Spec{}, err
	}
	defer fp.Close()
	s, err := LoadSpec(fp)
	if err != nil {
		return Spec{}, fmt.Errorf("%s: %w", name, err)
	}
	return s, nil
}

// WriteSpec encodes s as TOML.
func WriteSpec(w io.Writer, s Spec) error {
	return toml.NewEncoder(w).Encode(s)
}

// LoadPairSpec decodes a TOML bolt and nut description on top of
// DefaultPairSpec.
func LoadPairSpec(r io.Reader) (PairSpec, error) {
	ps := DefaultPairSpec()
	if err := decodeStrict(r, &ps); err != nil {
		return PairSpec{}, err
	}
	return ps, nil
}

func decodeStrict(r io.Reader, v interface{}) error {
	md, err := toml.NewDecoder(r).Decode(v)
	if err != nil {
		return fmt.Errorf("decoding thread spec: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown thread spec keys %v", undecoded)
	}
	return nil
}
