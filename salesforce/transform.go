package salesforce

import (
	"sort"
	"strconv"
	"strings"
)

// missingLabelSentinel marks non-browsable system artifacts in the global
// describe; Salesforce renders them with a "__MISSING LABEL__ ..." label.
const missingLabelSentinel = "MISSING LABEL"

// transformObjectList maps a global describe to the object-list response,
// dropping sentinel-labelled system artifacts.
func transformObjectList(raw rawGlobalDescribe) []ObjectBasicInfo {
	objects := make([]ObjectBasicInfo, 0, len(raw.Sobjects))
	for _, obj := range raw.Sobjects {
		if strings.Contains(obj.Label, missingLabelSentinel) {
			continue
		}
		objects = append(objects, ObjectBasicInfo{
			Name:             obj.Name,
			Label:            obj.Label,
			LabelPlural:      obj.LabelPlural,
			KeyPrefix:        obj.KeyPrefix,
			Custom:           obj.Custom,
			NamespacePrefix:  obj.NamespacePrefix,
			Queryable:        obj.Queryable,
			Createable:       obj.Createable,
			Updateable:       obj.Updateable,
			Deletable:        obj.Deletable,
			Searchable:       obj.Searchable,
			Triggerable:      obj.Triggerable,
			FeedEnabled:      obj.FeedEnabled,
			Mergeable:        obj.Mergeable,
			Replicateable:    obj.Replicateable,
			Reportable:       obj.Reportable,
			Activateable:     obj.Activateable,
			HasSubtypes:      obj.HasSubtypes,
			Description:      obj.Description,
			DeploymentStatus: obj.DeploymentStatus,
		})
	}
	return objects
}

// transformObjectDescribe maps a single-object describe to the typed
// response shape.
func transformObjectDescribe(raw rawObjectDescribe) ObjectDescribe {
	fields := make([]FieldInfo, 0, len(raw.Fields))
	for _, f := range raw.Fields {
		fields = append(fields, transformField(f))
	}

	relationships := make([]RelationshipInfo, 0, len(raw.ChildRelationships))
	for _, rel := range raw.ChildRelationships {
		relationships = append(relationships, RelationshipInfo{
			ChildObject:      rel.ChildSObject,
			Field:            rel.Field,
			RelationshipName: rel.RelationshipName,
			CascadeDelete:    rel.CascadeDelete,
		})
	}

	var recordTypes []RecordTypeInfo
	for _, rt := range raw.RecordTypeInfos {
		recordTypes = append(recordTypes, RecordTypeInfo{
			Name:          rt.Name,
			DeveloperName: rt.DeveloperName,
			RecordTypeID:  rt.RecordTypeID,
			Available:     rt.Available,
			Master:        rt.Master,
		})
	}

	var scopes []ScopeInfo
	for _, sc := range raw.SupportedScopes {
		scopes = append(scopes, ScopeInfo{Name: sc.Name, Label: sc.Label})
	}

	return ObjectDescribe{
		Name:               raw.Name,
		Label:              raw.Label,
		LabelPlural:        raw.LabelPlural,
		KeyPrefix:          raw.KeyPrefix,
		Custom:             raw.Custom,
		Fields:             fields,
		ChildRelationships: relationships,
		RecordTypeInfos:    recordTypes,
		SupportedScopes:    scopes,
	}
}

func transformField(f rawField) FieldInfo {
	var picklistValues []string
	if f.Type == "picklist" || f.Type == "multipicklist" {
		picklistValues = make([]string, 0, len(f.PicklistValues))
		for _, pv := range f.PicklistValues {
			picklistValues = append(picklistValues, pv.Value)
		}
	}

	return FieldInfo{
		Name:              f.Name,
		Label:             f.Label,
		Type:              f.Type,
		Length:            f.Length,
		Precision:         f.Precision,
		Scale:             f.Scale,
		Nillable:          f.Nillable,
		Unique:            f.Unique,
		Custom:            f.Custom,
		ExternalID:        f.ExternalID,
		ReferenceTo:       f.ReferenceTo,
		RelationshipName:  f.RelationshipName,
		RelationshipOrder: f.RelationshipOrder,
		PicklistValues:    picklistValues,
		Calculated:        f.Calculated,
		Formula:           f.CalculatedFormula,
	}
}

// sortVersionsDescending orders API versions newest first, comparing the
// version numerically ("100.0" sorts above "62.0").
func sortVersionsDescending(versions []ApiVersionInfo) {
	sort.SliceStable(versions, func(i, j int) bool {
		return versionNumber(versions[i].Version) > versionNumber(versions[j].Version)
	})
}

func versionNumber(v string) float64 {
	n, err := strconv.ParseFloat(strings.TrimPrefix(v, "v"), 64)
	if err != nil {
		return 0
	}
	return n
}
