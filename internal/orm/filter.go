package orm

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/tmitchell/kubeorm/internal/kerrors"
	"github.com/tmitchell/kubeorm/internal/model"
)

const (
	// arrayWildcard matches any element in an array path, e.g.
	// "spec.containers[*].image".
	arrayWildcard = "[*]"

	// Limits on client-side criteria to keep a single Filter call bounded.
	maxFilterCriteria  = 50
	maxPathDepth       = 20
	maxFilterValueSize = 1024
)

// Criteria maps filter keys to expected values. Keys name model fields or
// dotted manifest paths; see Mapper.Filter for how they are routed between
// the API server and client-side matching.
type Criteria map[string]interface{}

// validateCriteria bounds the client-side portion of a criteria set.
func validateCriteria(modelName string, criteria map[string]interface{}) error {
	if len(criteria) > maxFilterCriteria {
		return &kerrors.ValidationError{Model: modelName, Reason: fmt.Sprintf("too many filter criteria: %d (max %d)", len(criteria), maxFilterCriteria)}
	}
	for path, value := range criteria {
		if path == "" {
			return &kerrors.ValidationError{Model: modelName, Reason: "filter path cannot be empty"}
		}
		if strings.Contains(path, "..") {
			return &kerrors.ValidationError{Model: modelName, Reason: fmt.Sprintf("filter path contains invalid pattern '..': %q", path)}
		}
		if strings.Count(path, ".") > maxPathDepth {
			return &kerrors.ValidationError{Model: modelName, Reason: fmt.Sprintf("filter path too deep: %q", path)}
		}
		if s, ok := value.(string); ok && len(s) > maxFilterValueSize {
			return &kerrors.ValidationError{Model: modelName, Reason: fmt.Sprintf("filter value too large: %d bytes", len(s))}
		}
	}
	return nil
}

// manifestPath translates a criteria key into a dotted manifest path.
// Identity field names map to their metadata locations; explicit spec-scoped
// fields are prefixed with "spec."; everything else (top-level fields, raw
// manifest paths like "status.phase") passes through unchanged.
func manifestPath(m *model.ModelType, key string) string {
	head := key
	rest := ""
	if i := strings.IndexByte(key, '.'); i >= 0 {
		head, rest = key[:i], key[i:]
	}

	switch head {
	case model.FieldMetadataName:
		return "metadata.name" + rest
	case model.FieldMetadataUID:
		return "metadata.uid" + rest
	case model.FieldResourceVersion:
		return "metadata.resourceVersion" + rest
	case model.FieldMetadataLabels:
		return "metadata.labels" + rest
	case model.FieldMetadataAnnotations:
		return "metadata.annotations" + rest
	}

	if field, ok := m.Field(head); ok && !field.TopLevel {
		return "spec." + key
	}
	return key
}

// matchesCriteria reports whether a manifest satisfies every criterion
// (AND logic). Paths may contain the array wildcard token.
func matchesCriteria(obj *unstructured.Unstructured, criteria map[string]interface{}) bool {
	for path, expected := range criteria {
		if !matchesFieldPath(obj, path, expected) {
			return false
		}
	}
	return true
}

func matchesFieldPath(obj *unstructured.Unstructured, path string, expected interface{}) bool {
	if strings.Contains(path, arrayWildcard) {
		return matchesArrayPath(obj, path, expected)
	}

	value, found := nestedValue(obj.Object, strings.Split(path, "."))
	if !found {
		return false
	}
	return valuesMatch(value, expected)
}

// matchesArrayPath handles paths like "spec.containers[*].image": the
// criterion matches when any array element does.
func matchesArrayPath(obj *unstructured.Unstructured, path string, expected interface{}) bool {
	parts := strings.Split(path, ".")

	var (
		arrayIndex     int
		arrayFieldName string
		remainingPath  []string
	)
	for i, part := range parts {
		if strings.Contains(part, arrayWildcard) {
			arrayIndex = i
			arrayFieldName = strings.TrimSuffix(part, arrayWildcard)
			if i+1 < len(parts) {
				remainingPath = parts[i+1:]
			}
			break
		}
	}

	pathToArray := parts[:arrayIndex]
	if arrayFieldName != "" {
		pathToArray = append(pathToArray, arrayFieldName)
	}

	arrayValue, found := nestedValue(obj.Object, pathToArray)
	if !found {
		return false
	}
	elements, ok := arrayValue.([]interface{})
	if !ok {
		return false
	}

	for _, elem := range elements {
		if len(remainingPath) == 0 {
			if valuesMatch(elem, expected) {
				return true
			}
			continue
		}
		elemMap, ok := elem.(map[string]interface{})
		if !ok {
			continue
		}
		if value, found := nestedValue(elemMap, remainingPath); found && valuesMatch(value, expected) {
			return true
		}
	}
	return false
}

// nestedValue retrieves a value from nested maps by path.
func nestedValue(obj map[string]interface{}, path []string) (interface{}, bool) {
	if len(path) == 0 {
		return nil, false
	}

	current := obj
	for i, key := range path {
		value, found := current[key]
		if !found {
			return nil, false
		}
		if i == len(path)-1 {
			return value, true
		}
		next, ok := value.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current = next
	}
	return nil, false
}

// valuesMatch compares an actual manifest value against an expected one.
// Maps match by subset (every expected pair present); numbers and other
// scalars fall back to string-representation equality, which sidesteps the
// int/int64/float64 mix JSON decoding produces.
func valuesMatch(actual, expected interface{}) bool {
	if actual == nil && expected == nil {
		return true
	}
	if actual == nil || expected == nil {
		return false
	}

	if actualStr, ok := actual.(string); ok {
		if expectedStr, ok := expected.(string); ok {
			return actualStr == expectedStr
		}
	}
	if actualBool, ok := actual.(bool); ok {
		if expectedBool, ok := expected.(bool); ok {
			return actualBool == expectedBool
		}
	}

	if expectedMap, ok := expected.(map[string]interface{}); ok {
		actualMap, ok := actual.(map[string]interface{})
		if !ok {
			return false
		}
		for key, expectedVal := range expectedMap {
			actualVal, found := actualMap[key]
			if !found || !valuesMatch(actualVal, expectedVal) {
				return false
			}
		}
		return true
	}

	return fmt.Sprintf("%v", actual) == fmt.Sprintf("%v", expected)
}
