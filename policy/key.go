package policy

import "strings"

// Key identifies a logical operation, e.g. {Namespace: "roster", Name: "list"}.
type Key struct {
	Namespace string `json:"namespace,omitempty"`
	Name      string `json:"name"`
}

// ParseKey parses "namespace.name" into a Key. Inputs without a dot become a
// bare Name; surrounding whitespace is ignored.
func ParseKey(s string) Key {
	s = strings.TrimSpace(s)
	if s == "" {
		return Key{}
	}

	idx := strings.Index(s, ".")
	if idx < 0 {
		return Key{Name: s}
	}

	ns := strings.TrimSpace(s[:idx])
	name := strings.TrimSpace(s[idx+1:])
	switch {
	case ns == "" && name == "":
		return Key{}
	case ns == "":
		return Key{Name: name}
	case name == "":
		return Key{Name: s}
	default:
		return Key{Namespace: ns, Name: name}
	}
}

func (k Key) String() string {
	if k.Namespace == "" {
		return k.Name
	}
	if k.Name == "" {
		return k.Namespace
	}
	return k.Namespace + "." + k.Name
}
