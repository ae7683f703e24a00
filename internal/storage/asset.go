package storage

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"

	"github.com/pixil98/go-errors"
)

// AssetVersion is the envelope version written by every backend.
const AssetVersion = 1

var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9-]*$`)

type ValidatingSpec interface {
	Validate() error
}

type Identifier string

func (id Identifier) String() string {
	return string(id)
}

// Validate checks that id is usable as a storage key.
func (id Identifier) Validate() error {
	if id == "" {
		return fmt.Errorf("id must be set")
	}
	if !identifierPattern.MatchString(string(id)) {
		return fmt.Errorf("id %q must be alphanumeric", id)
	}
	return nil
}

// Asset is the versioned envelope every record is persisted in.
type Asset[T ValidatingSpec] struct {
	Version    uint       `json:"version"`
	Identifier Identifier `json:"id"`
	Spec       T          `json:"spec"`
}

func (a *Asset[T]) Id() Identifier {
	return a.Identifier
}

func (a *Asset[T]) Validate() error {
	el := errors.NewErrorList()

	if a.Version == 0 {
		el.Add(fmt.Errorf("version must be set"))
	} else if a.Version > AssetVersion {
		el.Add(fmt.Errorf("unsupported version %d", a.Version))
	}

	el.Add(a.Identifier.Validate())

	if isNil(a.Spec) {
		el.Add(fmt.Errorf("spec must be set"))
	} else {
		el.Add(a.Spec.Validate())
	}

	return el.Err()
}

func encodeAsset[T ValidatingSpec](id Identifier, spec T) ([]byte, error) {
	asset := &Asset[T]{
		Version:    AssetVersion,
		Identifier: id,
		Spec:       spec,
	}

	err := asset.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating %s: %w", id, err)
	}

	data, err := json.Marshal(asset)
	if err != nil {
		return nil, fmt.Errorf("marshalling json: %w", err)
	}
	return data, nil
}

func decodeAsset[T ValidatingSpec](id Identifier, data []byte) (T, error) {
	var zero T

	var fields map[string]json.RawMessage
	err := json.Unmarshal(data, &fields)
	if err != nil {
		return zero, fmt.Errorf("unmarshalling asset: %w", err)
	}
	if !isEnvelope(fields) {
		return decodeBare[T](id, data)
	}

	asset := &Asset[T]{}
	err = json.Unmarshal(data, asset)
	if err != nil {
		return zero, fmt.Errorf("unmarshalling asset: %w", err)
	}

	err = asset.Validate()
	if err != nil {
		return zero, fmt.Errorf("validating %s: %w", id, err)
	}

	if asset.Identifier != id {
		return zero, fmt.Errorf("asset id %q does not match key %q", asset.Identifier, id)
	}

	return asset.Spec, nil
}

// decodeBare reads a record written without the envelope, as saves from
// before versioning were.
func decodeBare[T ValidatingSpec](id Identifier, data []byte) (T, error) {
	var spec T
	err := json.Unmarshal(data, &spec)
	if err != nil {
		return spec, fmt.Errorf("unmarshalling unversioned %s: %w", id, err)
	}
	if isNil(spec) {
		return spec, fmt.Errorf("validating %s: spec must be set", id)
	}
	err = spec.Validate()
	if err != nil {
		return spec, fmt.Errorf("validating unversioned %s: %w", id, err)
	}
	return spec, nil
}

func isEnvelope(fields map[string]json.RawMessage) bool {
	for _, k := range []string{"version", "id", "spec"} {
		if _, ok := fields[k]; ok {
			return true
		}
	}
	return false
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
