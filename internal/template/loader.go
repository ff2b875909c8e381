package template

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// File names inside the template storage directory.
const (
	TemplatesFile = "templates.json"
	ClientsFile   = "clients.json"
)

// LoadMode controls how errors are handled during loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first invalid template.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll validates every template and collects all errors;
	// valid templates still load.
	LoadModeCollectAll
)

// Load error codes.
const (
	ErrCodeNotFound = "E_NOT_FOUND"
	ErrCodeParse    = "E_PARSE"
	ErrCodeSchema   = "E_SCHEMA"
)

// LoadError reports a problem with the template storage or one template
// object in it.
type LoadError struct {
	Code    string
	Path    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
}

// LoadResult holds the usable portion of the template storage.
type LoadResult struct {
	Templates []Template
	// Clients maps client id to display name.
	Clients map[string]string
	// Excluded counts templates rejected by schema validation.
	Excluded int
}

// ClientName resolves a client id to its display name, or "" when the id
// is unknown or empty.
func (r *LoadResult) ClientName(id string) string {
	if r.Clients == nil {
		return ""
	}
	return r.Clients[id]
}

// LoadDir reads templates.json (required) and clients.json (optional)
// from dir, validating each template against the schema. Invalid
// templates are excluded; in LoadModeCollectAll the rest still load.
func LoadDir(dir string, mode LoadMode) (*LoadResult, []error) {
	templatesPath := filepath.Join(dir, TemplatesFile)
	data, err := os.ReadFile(templatesPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, []error{&LoadError{Code: ErrCodeNotFound, Path: templatesPath, Message: "templates file not found"}}
		}
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Path: templatesPath, Message: err.Error()}}
	}

	var rawTemplates []json.RawMessage
	if err := json.Unmarshal(data, &rawTemplates); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeParse, Path: templatesPath, Message: err.Error()}}
	}

	validator, err := NewValidator()
	if err != nil {
		return nil, []error{err}
	}

	result := &LoadResult{Clients: map[string]string{}}
	var errs []error
	for i, raw := range rawTemplates {
		name := fmt.Sprintf("%s[%d]", TemplatesFile, i)
		if err := validator.Validate(raw, name); err != nil {
			errs = append(errs, err)
			result.Excluded++
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		var tpl Template
		if err := json.Unmarshal(raw, &tpl); err != nil {
			errs = append(errs, &LoadError{Code: ErrCodeParse, Path: name, Message: err.Error()})
			result.Excluded++
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		result.Templates = append(result.Templates, tpl)
	}

	if err := loadClients(filepath.Join(dir, ClientsFile), result); err != nil {
		errs = append(errs, err)
		if mode == LoadModeFailFast {
			return result, errs
		}
	}

	return result, errs
}

// loadClients fills result.Clients from the optional clients file.
// A missing file is not an error; templates with no known client simply
// audit with an empty client name.
func loadClients(path string, result *LoadResult) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &LoadError{Code: ErrCodeNotFound, Path: path, Message: err.Error()}
	}

	var clients []Client
	if err := json.Unmarshal(data, &clients); err != nil {
		return &LoadError{Code: ErrCodeParse, Path: path, Message: err.Error()}
	}
	for _, c := range clients {
		result.Clients[c.ID] = c.Name
	}
	return nil
}
