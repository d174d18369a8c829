package salesforce

import "encoding/json"

// Response models returned to the frontend. Field names follow the public
// API contract (snake_case).

// ObjectBasicInfo is one entry of the org object list (global describe).
type ObjectBasicInfo struct {
	Name            string `json:"name"`
	Label           string `json:"label"`
	LabelPlural     string `json:"label_plural"`
	KeyPrefix       string `json:"key_prefix,omitempty"`
	Custom          bool   `json:"custom"`
	NamespacePrefix string `json:"namespace_prefix,omitempty"`
	Queryable       bool   `json:"queryable"`
	Createable      bool   `json:"createable"`
	Updateable      bool   `json:"updateable"`
	Deletable       bool   `json:"deletable"`
	Searchable      bool   `json:"searchable"`
	Triggerable     bool   `json:"triggerable"`
	FeedEnabled     bool   `json:"feed_enabled"`
	Mergeable       bool   `json:"mergeable"`
	Replicateable   bool   `json:"replicateable"`
	Reportable      bool   `json:"reportable"`
	Activateable    bool   `json:"activateable"`
	HasSubtypes     bool   `json:"has_subtypes"`
	Description     string `json:"description,omitempty"`
	DeploymentStatus string `json:"deployment_status,omitempty"`
}

// FieldInfo describes a single field of an sObject.
type FieldInfo struct {
	Name              string   `json:"name"`
	Label             string   `json:"label"`
	Type              string   `json:"type"`
	Length            *int     `json:"length,omitempty"`
	Precision         *int     `json:"precision,omitempty"`
	Scale             *int     `json:"scale,omitempty"`
	Nillable          bool     `json:"nillable"`
	Unique            bool     `json:"unique"`
	Custom            bool     `json:"custom"`
	ExternalID        bool     `json:"external_id"`
	ReferenceTo       []string `json:"reference_to,omitempty"`
	RelationshipName  string   `json:"relationship_name,omitempty"`
	RelationshipOrder *int     `json:"relationship_order,omitempty"` // 0 = lookup, 1 = master-detail
	PicklistValues    []string `json:"picklist_values,omitempty"`
	Calculated        bool     `json:"calculated"`
	Formula           string   `json:"formula,omitempty"`
}

// RelationshipInfo describes a child relationship of an sObject.
type RelationshipInfo struct {
	ChildObject      string `json:"child_object"`
	Field            string `json:"field"`
	RelationshipName string `json:"relationship_name,omitempty"`
	CascadeDelete    bool   `json:"cascade_delete"` // true = master-detail
}

// RecordTypeInfo describes one record type of an sObject.
type RecordTypeInfo struct {
	Name          string `json:"name"`
	DeveloperName string `json:"developer_name,omitempty"`
	RecordTypeID  string `json:"record_type_id"`
	Available     bool   `json:"available"`
	Master        bool   `json:"master"`
}

// ScopeInfo describes a supported query scope of an sObject.
type ScopeInfo struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// ObjectDescribe is the full schema of a single sObject.
type ObjectDescribe struct {
	Name               string             `json:"name"`
	Label              string             `json:"label"`
	LabelPlural        string             `json:"label_plural"`
	KeyPrefix          string             `json:"key_prefix,omitempty"`
	Custom             bool               `json:"custom"`
	Fields             []FieldInfo        `json:"fields"`
	ChildRelationships []RelationshipInfo `json:"child_relationships"`
	RecordTypeInfos    []RecordTypeInfo   `json:"record_type_infos,omitempty"`
	SupportedScopes    []ScopeInfo        `json:"supported_scopes,omitempty"`
}

// ApiVersionInfo is one supported REST API version of the org.
type ApiVersionInfo struct {
	Version string `json:"version"` // e.g. "62.0"
	Label   string `json:"label"`   // e.g. "Winter '25"
	URL     string `json:"url"`     // e.g. "/services/data/v62.0"
}

// OrgInfo is the Organization record fetched via SOQL.
type OrgInfo struct {
	Name         string
	OrgType      string
	IsSandbox    bool
	InstanceName string
}

// QueryResult is a SOQL query response.
type QueryResult struct {
	TotalSize int              `json:"totalSize"`
	Done      bool             `json:"done"`
	Records   []map[string]any `json:"records"`
}

// Raw payload shapes as the vendor returns them (camelCase).

type rawGlobalDescribe struct {
	Sobjects []rawObjectSummary `json:"sobjects"`
}

type rawObjectSummary struct {
	Name             string `json:"name"`
	Label            string `json:"label"`
	LabelPlural      string `json:"labelPlural"`
	KeyPrefix        string `json:"keyPrefix"`
	Custom           bool   `json:"custom"`
	NamespacePrefix  string `json:"namespacePrefix"`
	Queryable        bool   `json:"queryable"`
	Createable       bool   `json:"createable"`
	Updateable       bool   `json:"updateable"`
	Deletable        bool   `json:"deletable"`
	Searchable       bool   `json:"searchable"`
	Triggerable      bool   `json:"triggerable"`
	FeedEnabled      bool   `json:"feedEnabled"`
	Mergeable        bool   `json:"mergeable"`
	Replicateable    bool   `json:"replicateable"`
	Reportable       bool   `json:"reportable"`
	Activateable     bool   `json:"activateable"`
	HasSubtypes      bool   `json:"hasSubtypes"`
	Description      string `json:"description"`
	DeploymentStatus string `json:"deploymentStatus"`
}

type rawObjectDescribe struct {
	Name               string                `json:"name"`
	Label              string                `json:"label"`
	LabelPlural        string                `json:"labelPlural"`
	KeyPrefix          string                `json:"keyPrefix"`
	Custom             bool                  `json:"custom"`
	Fields             []rawField            `json:"fields"`
	ChildRelationships []rawChildRelationship `json:"childRelationships"`
	RecordTypeInfos    []rawRecordTypeInfo   `json:"recordTypeInfos"`
	SupportedScopes    []rawScope            `json:"supportedScopes"`
}

type rawField struct {
	Name              string             `json:"name"`
	Label             string             `json:"label"`
	Type              string             `json:"type"`
	Length            *int               `json:"length"`
	Precision         *int               `json:"precision"`
	Scale             *int               `json:"scale"`
	Nillable          bool               `json:"nillable"`
	Unique            bool               `json:"unique"`
	Custom            bool               `json:"custom"`
	ExternalID        bool               `json:"externalId"`
	ReferenceTo       []string           `json:"referenceTo"`
	RelationshipName  string             `json:"relationshipName"`
	RelationshipOrder *int               `json:"relationshipOrder"`
	PicklistValues    []rawPicklistValue `json:"picklistValues"`
	Calculated        bool               `json:"calculated"`
	CalculatedFormula string             `json:"calculatedFormula"`
}

type rawPicklistValue struct {
	Value  string `json:"value"`
	Active bool   `json:"active"`
}

type rawChildRelationship struct {
	ChildSObject     string `json:"childSObject"`
	Field            string `json:"field"`
	RelationshipName string `json:"relationshipName"`
	CascadeDelete    bool   `json:"cascadeDelete"`
}

type rawRecordTypeInfo struct {
	Name          string `json:"name"`
	DeveloperName string `json:"developerName"`
	RecordTypeID  string `json:"recordTypeId"`
	Available     bool   `json:"available"`
	Master        bool   `json:"master"`
}

type rawScope struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

type rawVersionInfo struct {
	Label   string `json:"label"`
	URL     string `json:"url"`
	Version string `json:"version"`
}

// Composite API shapes. Sub-request bodies come back as raw JSON because a
// failed sub-request carries an error array instead of a describe.

type compositeRequest struct {
	AllOrNone        bool                  `json:"allOrNone"`
	CompositeRequest []compositeSubRequest `json:"compositeRequest"`
}

type compositeSubRequest struct {
	Method      string `json:"method"`
	URL         string `json:"url"`
	ReferenceID string `json:"referenceId"`
}

type compositeResponse struct {
	CompositeResponse []compositeSubResponse `json:"compositeResponse"`
}

type compositeSubResponse struct {
	Body           json.RawMessage `json:"body"`
	HTTPStatusCode int             `json:"httpStatusCode"`
	ReferenceID    string          `json:"referenceId"`
}
