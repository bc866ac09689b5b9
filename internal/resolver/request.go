package resolver

// A Request is a parsed import specifier. It is cheap to compare and hash,
// which matters because (request, context) pairs are the memoization key for
// resolution.
type Request struct {
	Specifier string
	Kind      RequestKind
}

type RequestKind uint8

const (
	// "./foo" or "../foo"
	RequestRelative RequestKind = iota

	// "/foo"
	RequestAbsolute

	// "foo" or "@scope/foo": resolved through node_modules
	RequestModule

	// "https://..." or "data:...": never resolved by this resolver
	RequestURI

	// The empty specifier
	RequestEmpty

	// A specifier that is not a constant string, e.g. a template literal or
	// an arbitrary expression in a dynamic import
	RequestDynamic
)

func (kind RequestKind) String() string {
	switch kind {
	case RequestRelative:
		return "relative"
	case RequestAbsolute:
		return "absolute"
	case RequestModule:
		return "module"
	case RequestURI:
		return "uri"
	case RequestEmpty:
		return "empty"
	default:
		return "dynamic"
	}
}

func ParseRequest(specifier string) Request {
	switch {
	case specifier == "":
		return Request{Kind: RequestEmpty}

	case startsWithDotSlash(specifier):
		return Request{Kind: RequestRelative, Specifier: specifier}

	case specifier[0] == '/':
		return Request{Kind: RequestAbsolute, Specifier: specifier}

	case isURI(specifier):
		return Request{Kind: RequestURI, Specifier: specifier}

	default:
		return Request{Kind: RequestModule, Specifier: specifier}
	}
}

// DynamicRequest represents a non-constant specifier expression. It always
// resolves to the unresolvable outcome.
func DynamicRequest() Request {
	return Request{Kind: RequestDynamic}
}

func startsWithDotSlash(specifier string) bool {
	if specifier[0] != '.' {
		return false
	}
	rest := specifier[1:]
	if rest != "" && rest[0] == '.' {
		rest = rest[1:]
	}
	return rest == "" || rest[0] == '/'
}

func isURI(specifier string) bool {
	for i := 0; i < len(specifier); i++ {
		c := specifier[i]
		if c == ':' {
			return i > 0
		}
		isSchemeChar := c == '+' || c == '-' || c == '.' ||
			(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
		if !isSchemeChar {
			return false
		}
	}
	return false
}
