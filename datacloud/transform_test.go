package datacloud

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransformEntityDescribePrimaryKeysFromFields(t *testing.T) {
	entity := rawEntity{
		Name:        "UnifiedIndividual__dlm",
		DisplayName: "Unified Individual",
		EntityType:  EntityTypeDataModelObject,
		Fields: []rawEntityField{
			{Name: "Id__c", DataType: "STRING", IsPrimaryKey: true},
			{Name: "FirstName__c", DataType: "STRING"},
		},
	}

	describe := transformEntityDescribe(entity)
	require.Equal(t, []string{"Id__c"}, describe.PrimaryKeys)
	require.Len(t, describe.Fields, 2)
	require.True(t, describe.Fields[0].IsPrimaryKey)
}

func TestTransformEntityDescribePrimaryKeysTopLevelFallback(t *testing.T) {
	entity := rawEntity{
		Name: "Order__dlm",
		Fields: []rawEntityField{
			{Name: "OrderId__c", DataType: "STRING"},
		},
		PrimaryKeys: []json.RawMessage{
			json.RawMessage(`{"name": "OrderId__c", "indexOrder": "1"}`),
		},
	}

	describe := transformEntityDescribe(entity)
	require.Equal(t, []string{"OrderId__c"}, describe.PrimaryKeys)
}

func TestTransformEntityDescribePrimaryKeysStringShape(t *testing.T) {
	entity := rawEntity{
		Name:        "Order__dlm",
		PrimaryKeys: []json.RawMessage{json.RawMessage(`"OrderId__c"`)},
	}

	describe := transformEntityDescribe(entity)
	require.Equal(t, []string{"OrderId__c"}, describe.PrimaryKeys)
}

func TestTransformEntityDescribeDefaultsEntityType(t *testing.T) {
	describe := transformEntityDescribe(rawEntity{Name: "Individual__dlm"})
	require.Equal(t, EntityTypeDataModelObject, describe.EntityType)
	require.Equal(t, "Individual__dlm", describe.DisplayName)
}

func TestSynthesizeForeignKeyRelationships(t *testing.T) {
	fields := []FieldInfo{
		{Name: "AccountId__c", IsForeignKey: true, ReferenceTo: "Account__dlm"},
		{Name: "Name__c"},
	}

	relationships := synthesizeForeignKeyRelationships(fields, nil)
	require.Len(t, relationships, 1)
	require.Equal(t, "AccountId__c_rel", relationships[0].Name)
	require.Equal(t, "AccountId__c", relationships[0].FromField)
	require.Equal(t, "Account__dlm", relationships[0].ToEntity)
	require.Equal(t, "ForeignKey", relationships[0].RelationshipType)
}

func TestSynthesizeForeignKeyRelationshipsSkipsExisting(t *testing.T) {
	fields := []FieldInfo{
		{Name: "AccountId__c", IsForeignKey: true, ReferenceTo: "Account__dlm"},
	}
	explicit := []RelationshipInfo{
		{Name: "AccountId__c_rel", FromField: "AccountId__c", ToEntity: "Account__dlm", ToField: "Id__c"},
	}

	relationships := synthesizeForeignKeyRelationships(fields, explicit)
	require.Len(t, relationships, 1)
	require.Equal(t, "Id__c", relationships[0].ToField)
}

func TestTransformEntityFieldTypeFallback(t *testing.T) {
	require.Equal(t, "STRING", transformEntityField(rawEntityField{Name: "A", Type: "STRING"}).DataType)
	require.Equal(t, "Unknown", transformEntityField(rawEntityField{Name: "A"}).DataType)
}

func TestNormalizeEntityPayloadShapes(t *testing.T) {
	bare := []byte(`{"name": "Account__dlm", "displayName": "Account"}`)
	list := []byte(`[{"name": "Account__dlm"}]`)
	wrapped := []byte(`{"metadata": [{"name": "Account__dlm"}]}`)

	for _, payload := range [][]byte{bare, list, wrapped} {
		entity, err := normalizeEntityPayload(payload)
		require.NoError(t, err)
		require.Equal(t, "Account__dlm", entity.Name)
	}
}

func TestNormalizeEntityPayloadEmptyList(t *testing.T) {
	_, err := normalizeEntityPayload([]byte(`[]`))
	require.Error(t, err)
}

func TestNormalizeEntityListShapes(t *testing.T) {
	list, err := normalizeEntityList([]byte(`[{"name": "A"}, {"name": "B"}]`))
	require.NoError(t, err)
	require.Len(t, list, 2)

	list, err = normalizeEntityList([]byte(`{"metadata": [{"name": "A"}]}`))
	require.NoError(t, err)
	require.Len(t, list, 1)
}
