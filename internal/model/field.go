package model

// FieldKind is the closed enumeration of field kinds a model can carry.
// Every consumption site (manifest codec, framework field construction)
// switches exhaustively over these values.
type FieldKind string

const (
	FieldText           FieldKind = "text"
	FieldInteger        FieldKind = "integer"
	FieldBoolean        FieldKind = "boolean"
	FieldFloat          FieldKind = "float"
	FieldStructuredBlob FieldKind = "structured-blob"
	FieldList           FieldKind = "list"
)

// Valid reports whether the kind is a member of the enumeration.
func (k FieldKind) Valid() bool {
	switch k {
	case FieldText, FieldInteger, FieldBoolean, FieldFloat, FieldStructuredBlob, FieldList:
		return true
	}
	return false
}

const (
	// NameMaxLength is the Kubernetes object name length limit.
	NameMaxLength = 253

	// DefaultTextMaxLength is the default max length for text fields whose
	// schema does not constrain one.
	DefaultTextMaxLength = 255
)

// Names of the identity fields injected into every model. They are reserved:
// an explicit field declaration colliding with one of them is a
// configuration error.
const (
	FieldMetadataName        = "metadata_name"
	FieldResourceVersion     = "resource_version"
	FieldMetadataUID         = "metadata_uid"
	FieldMetadataLabels      = "metadata_labels"
	FieldMetadataAnnotations = "metadata_annotations"
)

// FieldDescriptor is the synthesized, framework-facing field definition.
type FieldDescriptor struct {
	Name      string
	Kind      FieldKind
	Nullable  bool
	MaxLength int

	// TopLevel marks fields that live at the manifest root (schema-derived
	// properties such as spec and status). Explicit fields default to living
	// under spec.<name>.
	TopLevel bool

	// Identity marks the injected metadata fields.
	Identity bool

	// ReadOnly marks fields that only the server assigns (resource_version,
	// metadata_uid). Instance.Set rejects writes to them; they are populated
	// from read responses and reflected back after save.
	ReadOnly bool
}

// identityFields returns the non-overridable fields injected into every
// model, in a fixed order.
func identityFields() []FieldDescriptor {
	return []FieldDescriptor{
		{Name: FieldMetadataName, Kind: FieldText, Nullable: false, MaxLength: NameMaxLength, Identity: true},
		{Name: FieldResourceVersion, Kind: FieldText, Nullable: true, Identity: true, ReadOnly: true},
		{Name: FieldMetadataUID, Kind: FieldText, Nullable: true, Identity: true, ReadOnly: true},
		{Name: FieldMetadataLabels, Kind: FieldStructuredBlob, Nullable: true, Identity: true},
		{Name: FieldMetadataAnnotations, Kind: FieldStructuredBlob, Nullable: true, Identity: true},
	}
}

// reservedFieldNames is the set of identity field names.
func reservedFieldNames() map[string]bool {
	reserved := make(map[string]bool)
	for _, f := range identityFields() {
		reserved[f.Name] = true
	}
	return reserved
}
