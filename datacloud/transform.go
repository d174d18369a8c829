package datacloud

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// implicitRelationshipSuffix derives a relationship name from a
// foreign-key field, e.g. AccountId__c -> AccountId__c_rel.
const implicitRelationshipSuffix = "_rel"

// transformEntityDescribe maps a raw metadata entity to the typed describe,
// inferring primary keys and synthesizing relationships for foreign-key
// fields the vendor's explicit relationship list omits.
func transformEntityDescribe(entity rawEntity) EntityDescribe {
	fields := make([]FieldInfo, 0, len(entity.Fields))
	primaryKeys := make([]string, 0)

	for _, f := range entity.Fields {
		field := transformEntityField(f)
		fields = append(fields, field)
		if field.IsPrimaryKey {
			primaryKeys = append(primaryKeys, field.Name)
		}
	}

	relationships := make([]RelationshipInfo, 0, len(entity.Relationships))
	for _, rel := range entity.Relationships {
		relationships = append(relationships, RelationshipInfo{
			Name:             rel.Name,
			FromField:        rel.FromField,
			ToEntity:         rel.ToEntity,
			ToField:          rel.ToField,
			RelationshipType: rel.RelationshipType,
		})
	}
	relationships = synthesizeForeignKeyRelationships(fields, relationships)

	// Some payloads carry primary keys only at the top level instead of as
	// field flags.
	if len(primaryKeys) == 0 {
		primaryKeys = parsePrimaryKeys(entity.PrimaryKeys)
	}

	entityType := entity.EntityType
	if entityType == "" {
		entityType = EntityTypeDataModelObject
	}

	return EntityDescribe{
		Name:          entity.Name,
		DisplayName:   displayNameOrName(entity.DisplayName, entity.Name),
		EntityType:    entityType,
		Category:      entity.Category,
		Description:   entity.Description,
		IsStandard:    entity.IsStandard,
		Fields:        fields,
		Relationships: relationships,
		PrimaryKeys:   primaryKeys,
	}
}

func transformEntityField(f rawEntityField) FieldInfo {
	dataType := f.DataType
	if dataType == "" {
		dataType = f.Type
	}
	if dataType == "" {
		dataType = "Unknown"
	}

	return FieldInfo{
		Name:         f.Name,
		DisplayName:  displayNameOrName(f.DisplayName, f.Name),
		DataType:     dataType,
		IsPrimaryKey: f.IsPrimaryKey,
		IsForeignKey: f.IsForeignKey,
		IsRequired:   f.IsRequired,
		ReferenceTo:  f.ReferenceTo,
		KeyQualifier: f.KeyQualifier,
		Description:  f.Description,
		Length:       f.Length,
		Precision:    f.Precision,
		Scale:        f.Scale,
	}
}

// synthesizeForeignKeyRelationships guarantees every foreign-key field is
// navigable: any FK field without an explicit relationship of the derived
// name gets an implicit one.
func synthesizeForeignKeyRelationships(fields []FieldInfo, relationships []RelationshipInfo) []RelationshipInfo {
	existing := make(map[string]bool, len(relationships))
	for _, rel := range relationships {
		existing[rel.Name] = true
	}

	for _, field := range fields {
		if !field.IsForeignKey || field.ReferenceTo == "" {
			continue
		}
		relName := field.Name + implicitRelationshipSuffix
		if existing[relName] {
			continue
		}
		existing[relName] = true
		relationships = append(relationships, RelationshipInfo{
			Name:             relName,
			FromField:        field.Name,
			ToEntity:         field.ReferenceTo,
			ToField:          "", // resolves to the target's primary key
			RelationshipType: "ForeignKey",
		})
	}
	return relationships
}

// parsePrimaryKeys accepts both primaryKeys shapes: ["Id__c"] and
// [{"name": "Id__c", "indexOrder": "1"}].
func parsePrimaryKeys(raw []json.RawMessage) []string {
	keys := make([]string, 0, len(raw))
	for _, item := range raw {
		var name string
		if err := json.Unmarshal(item, &name); err == nil {
			if name != "" {
				keys = append(keys, name)
			}
			continue
		}
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(item, &obj); err == nil && obj.Name != "" {
			keys = append(keys, obj.Name)
		}
	}
	return keys
}

func displayNameOrName(displayName, name string) string {
	if displayName != "" {
		return displayName
	}
	return name
}

// normalizeEntityPayload extracts the single entity record out of a
// describe response, which may be the entity itself, a one-element list, or
// a list wrapped under a "metadata" key.
func normalizeEntityPayload(data []byte) (rawEntity, error) {
	var list []rawEntity
	if err := json.Unmarshal(data, &list); err == nil {
		if len(list) == 0 {
			return rawEntity{}, errors.New("empty entity list")
		}
		return list[0], nil
	}

	var wrapped struct {
		Metadata []rawEntity `json:"metadata"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && len(wrapped.Metadata) > 0 {
		return wrapped.Metadata[0], nil
	}

	var entity rawEntity
	if err := json.Unmarshal(data, &entity); err != nil {
		return rawEntity{}, errors.Wrap(err, "unexpected entity payload shape")
	}
	if entity.Name == "" {
		return rawEntity{}, errors.New("entity payload missing name")
	}
	return entity, nil
}

// normalizeEntityList extracts an entity list response, which may be a bare
// list or wrapped under a "metadata" key.
func normalizeEntityList(data []byte) ([]rawEntity, error) {
	var list []rawEntity
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var wrapped struct {
		Metadata []rawEntity `json:"metadata"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, errors.Wrap(err, "unexpected entity list shape")
	}
	return wrapped.Metadata, nil
}
