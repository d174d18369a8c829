package datacloud

import "encoding/json"

// Entity kinds in Data Cloud.
const (
	EntityTypeDataLakeObject  = "DataLakeObject"
	EntityTypeDataModelObject = "DataModelObject"
)

// Credentials is the secondary, Data-Cloud-scoped credential pair obtained
// by exchanging the primary session's access token. It is cached separately
// from sessions with its own TTL.
type Credentials struct {
	AccessToken string
	InstanceURL string // distinct host from the primary Salesforce instance
}

// EntityBasicInfo is one entry of the entity list (DLOs and DMOs).
type EntityBasicInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	EntityType  string `json:"entity_type"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	IsStandard  bool   `json:"is_standard"`
}

// FieldInfo is field metadata for a Data Cloud entity.
type FieldInfo struct {
	Name         string `json:"name"`
	DisplayName  string `json:"display_name"`
	DataType     string `json:"data_type"`
	IsPrimaryKey bool   `json:"is_primary_key"`
	IsForeignKey bool   `json:"is_foreign_key"`
	IsRequired   bool   `json:"is_required"`
	ReferenceTo  string `json:"reference_to,omitempty"`
	KeyQualifier string `json:"key_qualifier,omitempty"`
	Description  string `json:"description,omitempty"`
	Length       *int   `json:"length,omitempty"`
	Precision    *int   `json:"precision,omitempty"`
	Scale        *int   `json:"scale,omitempty"`
}

// RelationshipInfo is relationship metadata between Data Cloud entities.
type RelationshipInfo struct {
	Name             string `json:"name"`
	FromField        string `json:"from_field"`
	ToEntity         string `json:"to_entity"`
	ToField          string `json:"to_field"`
	RelationshipType string `json:"relationship_type,omitempty"`
}

// EntityDescribe is the full description of one entity.
type EntityDescribe struct {
	Name          string             `json:"name"`
	DisplayName   string             `json:"display_name"`
	EntityType    string             `json:"entity_type"`
	Category      string             `json:"category,omitempty"`
	Description   string             `json:"description,omitempty"`
	IsStandard    bool               `json:"is_standard"`
	Fields        []FieldInfo        `json:"fields"`
	Relationships []RelationshipInfo `json:"relationships"`
	PrimaryKeys   []string           `json:"primary_keys"`
}

// Raw payload shapes from the Metadata API (camelCase, flags optional).

type rawEntity struct {
	Name          string            `json:"name"`
	DisplayName   string            `json:"displayName"`
	EntityType    string            `json:"entityType"`
	Category      string            `json:"category"`
	Description   string            `json:"description"`
	IsStandard    bool              `json:"isStandard"`
	Fields        []rawEntityField  `json:"fields"`
	Relationships []rawRelationship `json:"relationships"`
	// primaryKeys arrives as either a list of strings or a list of
	// {"name": ..., "indexOrder": ...} objects.
	PrimaryKeys []json.RawMessage `json:"primaryKeys"`
}

type rawEntityField struct {
	Name         string `json:"name"`
	DisplayName  string `json:"displayName"`
	DataType     string `json:"dataType"`
	Type         string `json:"type"` // some payloads use "type" instead of "dataType"
	IsPrimaryKey bool   `json:"isPrimaryKey"`
	IsForeignKey bool   `json:"isForeignKey"`
	IsRequired   bool   `json:"isRequired"`
	ReferenceTo  string `json:"referenceTo"`
	KeyQualifier string `json:"keyQualifier"`
	Description  string `json:"description"`
	Length       *int   `json:"length"`
	Precision    *int   `json:"precision"`
	Scale        *int   `json:"scale"`
}

type rawRelationship struct {
	Name             string `json:"name"`
	FromField        string `json:"fromField"`
	ToEntity         string `json:"toEntity"`
	ToField          string `json:"toField"`
	RelationshipType string `json:"relationshipType"`
}

type rawDataGraph struct {
	PrimaryObjectName string `json:"primaryObjectName"`
	Description       string `json:"description"`
	Object            struct {
		Fields []struct {
			ReferenceTo string `json:"referenceTo"`
		} `json:"fields"`
	} `json:"object"`
}
