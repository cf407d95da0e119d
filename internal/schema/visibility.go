package schema

// Visibility is a bitmask of the UI contexts a field participates in. The
// zero value means no mask was declared: the field is shown everywhere.
type Visibility uint8

const (
	VisibleNone Visibility = 1 << iota
	VisibleList
	VisibleDetail
	VisibleCreate
	VisibleUpdate
	VisibleSearch
)

// VisibleAll is the explicit mask covering every context.
const VisibleAll = VisibleList | VisibleDetail | VisibleCreate | VisibleUpdate | VisibleSearch

// Context is a UI context a field may be shown in.
type Context int

const (
	ContextList Context = iota
	ContextDetail
	ContextCreate
	ContextUpdate
	ContextSearch
)

// Contexts lists every context in a stable order.
var Contexts = []Context{ContextList, ContextDetail, ContextCreate, ContextUpdate, ContextSearch}

func (c Context) String() string {
	switch c {
	case ContextList:
		return "list"
	case ContextDetail:
		return "detail"
	case ContextCreate:
		return "create"
	case ContextUpdate:
		return "update"
	case ContextSearch:
		return "search"
	default:
		return "unknown"
	}
}

func (c Context) bit() Visibility {
	switch c {
	case ContextList:
		return VisibleList
	case ContextDetail:
		return VisibleDetail
	case ContextCreate:
		return VisibleCreate
	case ContextUpdate:
		return VisibleUpdate
	case ContextSearch:
		return VisibleSearch
	default:
		return 0
	}
}

// ShownIn reports whether a field with mask v is shown in ctx.
func ShownIn(v Visibility, ctx Context) bool {
	if v == 0 {
		return true
	}
	bit := ctx.bit()
	return bit != 0 && v&bit == bit
}

func ShowInList(v Visibility) bool { return ShownIn(v, ContextList) }
func ShowInDetail(v Visibility) bool { return ShownIn(v, ContextDetail) }
func ShowInCreate(v Visibility) bool { return ShownIn(v, ContextCreate) }
func ShowInUpdate(v Visibility) bool { return ShownIn(v, ContextUpdate) }
func ShowInSearch(v Visibility) bool { return ShownIn(v, ContextSearch) }

// ParseVisibility combines context names ("list", "detail", "create",
// "update", "search", "none", "all") into a mask. An empty list yields the
// zero mask.
func ParseVisibility(names []string) (Visibility, error) {
	var v Visibility
	for _, n := range names {
		switch n {
		case "none":
			v |= VisibleNone
		case "list":
			v |= VisibleList
		case "detail":
			v |= VisibleDetail
		case "create":
			v |= VisibleCreate
		case "update":
			v |= VisibleUpdate
		case "search":
			v |= VisibleSearch
		case "all":
			v |= VisibleAll
		default:
			return 0, &UnknownVisibilityError{Name: n}
		}
	}
	return v, nil
}

// FilterFields returns the fields shown in ctx, keeping declaration order.
func FilterFields(fields []*FieldMeta, ctx Context) []*FieldMeta {
	out := make([]*FieldMeta, 0, len(fields))
	for _, f := range fields {
		if ShownIn(f.Visibility, ctx) {
			out = append(out, f)
		}
	}
	return out
}
