package project

import (
	"encoding/json"
	"fmt"
)

// DiffActionType is the verb of a single JSON-diff action.
type DiffActionType string

const (
	DiffInsert DiffActionType = "insert"
	DiffUpdate DiffActionType = "update"
	DiffDelete DiffActionType = "delete"
)

// DiffAction is one host-pushed mutation. Key is a path of segments,
// each either a bare property name or an `{id: ...}` array selector;
// because the two shapes can't share a static Go type, each segment
// arrives as raw JSON and is classified in parseKey.
type DiffAction struct {
	Type  DiffActionType    `json:"type"`
	Key   []json.RawMessage `json:"key"`
	Value json.RawMessage   `json:"value"`
}

type keySegment struct {
	isID bool
	id   string
	name string
}

func parseKey(raw []json.RawMessage) ([]keySegment, error) {
	segs := make([]keySegment, 0, len(raw))
	for _, r := range raw {
		var name string
		if err := json.Unmarshal(r, &name); err == nil {
			segs = append(segs, keySegment{name: name})
			continue
		}

		var idSel struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(r, &idSel); err == nil && idSel.ID != "" {
			segs = append(segs, keySegment{isID: true, id: idSel.ID})
			continue
		}

		return nil, fmt.Errorf("project: invalid diff key segment %s", string(r))
	}
	return segs, nil
}

// ApplyJSONDiff walks the project tree applying each action in order,
// as follows: insert appends to arrays (else replaces the parent slot),
// update merges object-valued targets (else replaces), delete splices
// arrays or removes map keys. After all actions are applied the store
// re-sorts clips/transitions/layers and re-indexes layer Y values.
func (s *Store) ApplyJSONDiff(actions []DiffAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	root, err := toGeneric(s.project)
	if err != nil {
		return fmt.Errorf("project: marshal project to generic tree: %w", err)
	}

	for _, action := range actions {
		segs, err := parseKey(action.Key)
		if err != nil {
			return err
		}

		var value interface{}
		if len(action.Value) > 0 {
			if err := json.Unmarshal(action.Value, &value); err != nil {
				return fmt.Errorf("project: decode diff value: %w", err)
			}
		}

		newRoot, err := applyAtPath(root, segs, action.Type, value)
		if err != nil {
			return err
		}
		root = newRoot
	}

	var next Project
	if err := fromGeneric(root, &next); err != nil {
		return fmt.Errorf("project: decode generic tree back to project: %w", err)
	}

	s.project = &next
	s.version++
	s.reindexLocked()
	return nil
}

func toGeneric(p *Project) (interface{}, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func fromGeneric(v interface{}, out *Project) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// applyAtPath rebuilds the tree bottom-up: it returns the *new* value
// of node after the action has been applied somewhere along segs. Maps
// and slices decoded from JSON are never mutated in place (Go map
// values stored inside interface{} aren't addressable); instead each
// level is shallow-cloned on the way back up.
func applyAtPath(node interface{}, segs []keySegment, typ DiffActionType, value interface{}) (interface{}, error) {
	if len(segs) == 0 {
		return applyHere(node, typ, value)
	}

	seg := segs[0]
	rest := segs[1:]

	if seg.isID {
		arr, ok := node.([]interface{})
		if !ok {
			// Unknown/absent entity id is a no-op.
			return node, nil
		}

		idx := indexByID(arr, seg.id)
		if idx == -1 {
			return node, nil
		}

		if len(rest) == 0 && typ == DiffDelete {
			newArr := make([]interface{}, 0, len(arr)-1)
			newArr = append(newArr, arr[:idx]...)
			newArr = append(newArr, arr[idx+1:]...)
			return newArr, nil
		}

		newEl, err := applyAtPath(arr[idx], rest, typ, value)
		if err != nil {
			return nil, err
		}
		newArr := make([]interface{}, len(arr))
		copy(newArr, arr)
		newArr[idx] = newEl
		return newArr, nil
	}

	m, _ := node.(map[string]interface{})
	var child interface{}
	if m != nil {
		child = m[seg.name]
	}

	if len(rest) == 0 && typ == DiffDelete {
		newMap := cloneMap(m)
		delete(newMap, seg.name)
		return newMap, nil
	}

	newChild, err := applyAtPath(child, rest, typ, value)
	if err != nil {
		return nil, err
	}

	newMap := cloneMap(m)
	newMap[seg.name] = newChild
	return newMap, nil
}

func applyHere(node interface{}, typ DiffActionType, value interface{}) (interface{}, error) {
	switch typ {
	case DiffInsert:
		if arr, ok := node.([]interface{}); ok {
			newArr := make([]interface{}, len(arr)+1)
			copy(newArr, arr)
			newArr[len(arr)] = value
			return newArr, nil
		}
		return value, nil

	case DiffUpdate:
		if curMap, ok := node.(map[string]interface{}); ok {
			if valMap, ok2 := value.(map[string]interface{}); ok2 {
				merged := cloneMap(curMap)
				for k, v := range valMap {
					merged[k] = v
				}
				return merged, nil
			}
		}
		return value, nil

	case DiffDelete:
		return nil, nil

	default:
		return nil, fmt.Errorf("project: unknown diff action type %q", typ)
	}
}

func cloneMap(m map[string]interface{}) map[string]interface{} {
	newMap := make(map[string]interface{}, len(m))
	for k, v := range m {
		newMap[k] = v
	}
	return newMap
}

func indexByID(arr []interface{}, id string) int {
	for i, el := range arr {
		m, ok := el.(map[string]interface{})
		if !ok {
			continue
		}
		if elID, _ := m["id"].(string); elID == id {
			return i
		}
	}
	return -1
}
