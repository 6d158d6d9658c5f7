package openapi

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/omnitool-ai/omnitool-sub002/pkg/models"
	"github.com/omnitool-ai/omnitool-sub002/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const petstore = `
openapi: 3.0.3
info:
  title: Pets
  version: "1.0"
servers:
  - url: https://pets.example.com/v1/
paths:
  /pets/{petId}:
    parameters:
      - name: petId
        in: path
        required: true
        schema:
          type: string
    get:
      operationId: getPet
      summary: Get a pet
      tags: [pets]
      parameters:
        - name: verbose
          in: query
          schema:
            type: boolean
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                type: object
                properties:
                  name:
                    type: string
                  age:
                    type: integer
  /pets:
    post:
      operationId: createPet
      requestBody:
        required: true
        content:
          application/json:
            schema:
              type: object
              required: [name]
              properties:
                id:
                  type: string
                  readOnly: true
                name:
                  type: string
                kind:
                  type: string
                  enum: [cat, dog]
                  default: cat
                weight:
                  type: number
                  minimum: 0
                  maximum: 100
      responses:
        "201":
          description: created
          content:
            application/json:
              schema:
                type: array
                items:
                  type: string
  /pets/{petId}/photo:
    get:
      parameters:
        - name: petId
          in: path
          required: true
          schema:
            type: string
      responses:
        "200":
          description: photo
          content:
            image/png:
              schema:
                type: string
                format: binary
`

func TestImporter_Import(t *testing.T) {
	ns, err := NewImporter(nil).Import(context.Background(), "pets", []byte(petstore))
	require.NoError(t, err)

	assert.Equal(t, "Pets", ns.Title)
	assert.Equal(t, "https://pets.example.com/v1", ns.BaseURL)
	require.Len(t, ns.Components, 3)

	byID := map[string]models.ComponentFormat{}
	for _, c := range ns.Components {
		byID[c.APIOperationID] = c
	}

	get := byID["getPet"]
	assert.Equal(t, "GET", get.Method)
	assert.Equal(t, "/pets/{petId}", get.Path)
	assert.Equal(t, "Get a pet", get.Title)
	assert.Equal(t, "pets", get.Category)
	assert.Equal(t, &models.Source{SourceType: models.SourceParameter, In: "path"}, get.Inputs["petId"].Source)
	assert.True(t, get.Inputs["petId"].Required)
	assert.Equal(t, models.TypeBoolean, get.Inputs["verbose"].Type)
	assert.False(t, get.Inputs["verbose"].Required)
	assert.Equal(t, models.TypeInteger, get.Outputs["age"].Type)
	assert.Equal(t, models.SourceResponseBody, get.Outputs["name"].SourceType())

	create := byID["createPet"]
	assert.Equal(t, "POST", create.Method)
	assert.NotContains(t, create.Inputs, "id")
	assert.True(t, create.Inputs["name"].Required)
	assert.Equal(t, []any{"cat", "dog"}, create.Inputs["kind"].Choices)
	assert.Equal(t, "cat", create.Inputs["kind"].Default)
	require.NotNil(t, create.Inputs["weight"].Maximum)
	assert.InDelta(t, 100.0, *create.Inputs["weight"].Maximum, 1e-9)
	assert.Equal(t, ResultField, create.ResultField)
	assert.Equal(t, models.TypeArray, create.Outputs[ResultField].Type)

	photo := byID["get_pets_petId_photo"]
	assert.Equal(t, "image/png", photo.ResponseContentType)
	assert.Equal(t, "image", photo.Outputs[ResultField].CustomSocket)
}

func TestImporter_RegistersIntoRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(petstore), 0o600))

	ns, err := NewImporter(nil).ImportFile(context.Background(), "pets", path)
	require.NoError(t, err)

	reg := registry.NewRegistry(nil)
	for _, f := range ns.Components {
		require.NoError(t, reg.Register(f))
	}

	op, err := reg.ResolveOperation("pets.createPet")
	require.NoError(t, err)
	assert.Equal(t, registry.Operation{Namespace: "pets", Method: "POST", Path: "/pets"}, op)

	c, err := reg.Get("pets.getPet")
	require.NoError(t, err)
	assert.Equal(t, "petId", c.Format().Inputs["petId"].Name)
}

func TestImporter_Errors(t *testing.T) {
	_, err := NewImporter(nil).Import(context.Background(), "", []byte(petstore))
	require.ErrorIs(t, err, ErrNoNamespace)

	_, err = NewImporter(nil).Import(context.Background(), "x", []byte("openapi: ["))
	require.ErrorIs(t, err, ErrInvalidDocument)

	// missing info.version
	loose := []byte("openapi: 3.0.3\ninfo:\n  title: t\npaths: {}\n")

	_, err = NewImporter(nil).Import(context.Background(), "x", loose)
	require.ErrorIs(t, err, ErrInvalidDocument)

	ns, err := NewImporter(nil, WithoutValidation()).Import(context.Background(), "x", loose)
	require.NoError(t, err)
	assert.Empty(t, ns.Components)
}

func TestOperationID(t *testing.T) {
	assert.Equal(t, "declared", operationID("get", "/a", "declared"))
	assert.Equal(t, "get_users_id", operationID("GET", "/users/{id}", ""))
	assert.Equal(t, "post", operationID("post", "/", ""))
}
