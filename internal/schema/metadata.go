package schema

// Metadata is a record schema together with its field subsets per UI
// context. Subsets are computed once and keep declaration order.
type Metadata struct {
	Schema *RecordSchema

	list   []*FieldMeta
	detail []*FieldMeta
	create []*FieldMeta
	update []*FieldMeta
	search []*FieldMeta
}

// NewMetadata derives the per-context subsets of rs.
func NewMetadata(rs *RecordSchema) *Metadata {
	all := rs.Fields()
	return &Metadata{
		Schema: rs,
		list:   FilterFields(all, ContextList),
		detail: FilterFields(all, ContextDetail),
		create: FilterFields(all, ContextCreate),
		update: FilterFields(all, ContextUpdate),
		search: FilterFields(all, ContextSearch),
	}
}

func (m *Metadata) Table() TableMeta { return m.Schema.Table }
func (m *Metadata) Fields() []*FieldMeta { return m.Schema.Fields() }
func (m *Metadata) FieldsForList() []*FieldMeta { return m.list }
func (m *Metadata) FieldsForDetail() []*FieldMeta { return m.detail }
func (m *Metadata) FieldsForCreate() []*FieldMeta { return m.create }
func (m *Metadata) FieldsForUpdate() []*FieldMeta { return m.update }
func (m *Metadata) FieldsForSearch() []*FieldMeta { return m.search }

// FieldsFor returns the subset for ctx.
func (m *Metadata) FieldsFor(ctx Context) []*FieldMeta {
	switch ctx {
	case ContextList:
		return m.list
	case ContextDetail:
		return m.detail
	case ContextCreate:
		return m.create
	case ContextUpdate:
		return m.update
	case ContextSearch:
		return m.search
	default:
		return nil
	}
}
