package openapi

import (
	"github.com/getkin/kin-openapi/openapi3"
)

// Document generates the OpenAPI 3.1 description of the HTTP surface: note
// CRUD, key administration, and key issuance. Guarded operations declare the
// Api-Key security scheme; issuance is the only unauthenticated operation.
func Document(baseURL string) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "Notevault API",
			Description: "Per-account note storage guarded by API-key authentication.",
			Version:     "1.0.0",
		},
		Servers: openapi3.Servers{
			{URL: baseURL},
		},
	}

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{
		"Note":          {Value: noteSchema()},
		"KeySummary":    {Value: keySummarySchema()},
		"IssuedKey":     {Value: issuedKeySchema()},
		"ErrorResponse": {Value: errorSchema()},
	}
	components.SecuritySchemes = openapi3.SecuritySchemes{
		"apiKey": &openapi3.SecuritySchemeRef{
			Value: &openapi3.SecurityScheme{
				Type: "apiKey",
				In:   "header",
				Name: "Api-Key",
			},
		},
	}
	doc.Components = &components
	doc.Security = openapi3.SecurityRequirements{{"apiKey": {}}}

	doc.Paths = openapi3.NewPaths()

	noteRef := openapi3.NewSchemaRef("#/components/schemas/Note", nil)
	keyRef := openapi3.NewSchemaRef("#/components/schemas/KeySummary", nil)
	issuedRef := openapi3.NewSchemaRef("#/components/schemas/IssuedKey", nil)
	statusRef := &openapi3.SchemaRef{Value: statusSchema()}

	noteIDParam := openapi3.Parameters{
		&openapi3.ParameterRef{
			Value: openapi3.NewPathParameter("noteId").
				WithDescription("Note ID.").
				WithSchema(openapi3.NewStringSchema()),
		},
	}
	keyIDParam := openapi3.Parameters{
		&openapi3.ParameterRef{
			Value: openapi3.NewPathParameter("keyId").
				WithDescription("API key ID.").
				WithSchema(openapi3.NewStringSchema()),
		},
	}

	doc.Paths.Set("/notes", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"notes"},
			Summary:     "List notes",
			Description: "List all notes owned by the calling account.",
			OperationID: "list_notes",
			Responses: newResponses("200", "Notes owned by the caller", &openapi3.SchemaRef{
				Value: arrayEnvelope("notes", noteRef),
			}),
		},
		Post: &openapi3.Operation{
			Tags:        []string{"notes"},
			Summary:     "Create a note",
			Description: "Create a note. The server assigns the ID and creation time.",
			OperationID: "create_note",
			RequestBody: jsonBody(noteRequestSchema()),
			Responses:   newResponses("200", "The created note", noteRef),
		},
	})

	doc.Paths.Set("/notes/{noteId}", &openapi3.PathItem{
		Parameters: noteIDParam,
		Get: &openapi3.Operation{
			Tags:        []string{"notes"},
			Summary:     "Get a note",
			OperationID: "get_note",
			Responses:   newResponses("200", "The requested note", noteRef),
		},
		Patch: &openapi3.Operation{
			Tags:        []string{"notes"},
			Summary:     "Update a note",
			Description: "Partial update; at least one of title and description must be present.",
			OperationID: "update_note",
			RequestBody: jsonBody(notePatchSchema()),
			Responses:   newResponses("200", "The updated note", noteRef),
		},
		Delete: &openapi3.Operation{
			Tags:        []string{"notes"},
			Summary:     "Delete a note",
			Description: "Idempotent; deleting a missing note still succeeds.",
			OperationID: "delete_note",
			Responses:   newResponses("200", "Deletion acknowledged", statusRef),
		},
	})

	doc.Paths.Set("/api_key", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"keys"},
			Summary:     "List API keys",
			Description: "List the caller's keys. Neither the hash nor the plaintext is exposed.",
			OperationID: "list_api_keys",
			Responses: newResponses("200", "Keys owned by the caller", &openapi3.SchemaRef{
				Value: arrayEnvelope("data", keyRef),
			}),
		},
		Delete: &openapi3.Operation{
			Tags:        []string{"keys"},
			Summary:     "Delete all API keys",
			Description: "Delete every key owned by the caller. Previously issued credentials stop resolving.",
			OperationID: "delete_api_keys",
			Responses:   newResponses("200", "Deletion acknowledged", statusRef),
		},
	})

	doc.Paths.Set("/api_key/{keyId}", &openapi3.PathItem{
		Parameters: keyIDParam,
		Patch: &openapi3.Operation{
			Tags:        []string{"keys"},
			Summary:     "Update an API key",
			Description: "Change the name and/or scope of one key. The secret itself is immutable.",
			OperationID: "update_api_key",
			RequestBody: jsonBody(keyPatchSchema()),
			Responses:   newResponses("200", "The updated key", keyRef),
		},
		Delete: &openapi3.Operation{
			Tags:        []string{"keys"},
			Summary:     "Delete an API key",
			OperationID: "delete_api_key",
			Responses:   newResponses("200", "Deletion acknowledged", statusRef),
		},
	})

	issueOp := &openapi3.Operation{
		Tags:        []string{"keys"},
		Summary:     "Issue an API key",
		Description: "Issue a new credential. With an email a fresh account is created; without one the request must carry a valid Api-Key header and the key is added to the caller's account. The plaintext credential is returned exactly once.",
		OperationID: "issue_api_key",
		RequestBody: jsonBody(issueRequestSchema()),
		Responses:   newResponses("200", "The issued key, including the plaintext credential", issuedRef),
	}
	issueOp.Security = &openapi3.SecurityRequirements{{}}
	doc.Paths.Set("/api_key/new", &openapi3.PathItem{Post: issueOp})

	return doc
}

func noteSchema() *openapi3.Schema {
	return objectSchema(map[string]*openapi3.Schema{
		"id":          openapi3.NewStringSchema(),
		"uid":         openapi3.NewStringSchema(),
		"created_at":  openapi3.NewStringSchema().WithFormat("date-time"),
		"title":       openapi3.NewStringSchema(),
		"description": openapi3.NewStringSchema(),
	})
}

func noteRequestSchema() *openapi3.Schema {
	return objectSchema(map[string]*openapi3.Schema{
		"title":       openapi3.NewStringSchema(),
		"description": openapi3.NewStringSchema(),
	})
}

func notePatchSchema() *openapi3.Schema {
	return objectSchema(map[string]*openapi3.Schema{
		"title":       openapi3.NewStringSchema(),
		"description": openapi3.NewStringSchema(),
	})
}

func keySummarySchema() *openapi3.Schema {
	return objectSchema(map[string]*openapi3.Schema{
		"id":     openapi3.NewStringSchema(),
		"name":   openapi3.NewStringSchema(),
		"scope":  stringArraySchema(),
		"prefix": openapi3.NewStringSchema(),
	})
}

func keyPatchSchema() *openapi3.Schema {
	return objectSchema(map[string]*openapi3.Schema{
		"name":  openapi3.NewStringSchema(),
		"scope": stringArraySchema(),
	})
}

func issuedKeySchema() *openapi3.Schema {
	return objectSchema(map[string]*openapi3.Schema{
		"id":      openapi3.NewStringSchema(),
		"name":    openapi3.NewStringSchema(),
		"scope":   stringArraySchema(),
		"api_key": openapi3.NewStringSchema(),
		"prefix":  openapi3.NewStringSchema(),
	})
}

func issueRequestSchema() *openapi3.Schema {
	s := objectSchema(map[string]*openapi3.Schema{
		"name":  openapi3.NewStringSchema(),
		"scope": stringArraySchema(),
		"email": openapi3.NewStringSchema(),
	})
	s.Required = []string{"name", "scope"}
	return s
}

func errorSchema() *openapi3.Schema {
	return objectSchema(map[string]*openapi3.Schema{
		"error": openapi3.NewStringSchema(),
	})
}

func statusSchema() *openapi3.Schema {
	return objectSchema(map[string]*openapi3.Schema{
		"status": openapi3.NewStringSchema(),
	})
}

func objectSchema(props map[string]*openapi3.Schema) *openapi3.Schema {
	schemas := make(openapi3.Schemas, len(props))
	for name, s := range props {
		schemas[name] = &openapi3.SchemaRef{Value: s}
	}
	return &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Properties: schemas,
	}
}

func stringArraySchema() *openapi3.Schema {
	return &openapi3.Schema{
		Type:  &openapi3.Types{"array"},
		Items: &openapi3.SchemaRef{Value: openapi3.NewStringSchema()},
	}
}

// arrayEnvelope wraps an array of items under the given field name, matching
// the list response envelopes.
func arrayEnvelope(field string, items *openapi3.SchemaRef) *openapi3.Schema {
	return &openapi3.Schema{
		Type: &openapi3.Types{"object"},
		Properties: openapi3.Schemas{
			field: &openapi3.SchemaRef{
				Value: &openapi3.Schema{
					Type:  &openapi3.Types{"array"},
					Items: items,
				},
			},
		},
	}
}

func jsonBody(schema *openapi3.Schema) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{
		Value: openapi3.NewRequestBody().
			WithRequired(true).
			WithContent(openapi3.NewContentWithJSONSchema(schema)),
	}
}

// newResponses builds a Responses map with a success response and the
// standard error responses.
func newResponses(statusCode, description string, schema *openapi3.SchemaRef) *openapi3.Responses {
	responses := openapi3.NewResponses()

	successDesc := description
	responses.Set(statusCode, &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &successDesc,
			Content:     openapi3.NewContentWithJSONSchemaRef(schema),
		},
	})

	errorRef := openapi3.NewSchemaRef("#/components/schemas/ErrorResponse", nil)
	for code, desc := range map[string]string{
		"400": "Bad request",
		"401": "Unauthorized",
		"403": "Forbidden",
		"404": "Not found",
		"500": "Internal server error",
	} {
		d := desc
		responses.Set(code, &openapi3.ResponseRef{
			Value: &openapi3.Response{
				Description: &d,
				Content:     openapi3.NewContentWithJSONSchemaRef(errorRef),
			},
		})
	}

	return responses
}
