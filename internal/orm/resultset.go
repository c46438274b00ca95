package orm

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/tmitchell/kubeorm/internal/k8s"
	"github.com/tmitchell/kubeorm/internal/model"
)

// defaultPageSize is the list page size used when the caller does not set
// one.
const defaultPageSize = 500

// ResultSet is a lazy, single-pass iterator over a filtered list. Pages are
// fetched on demand using the server's continue token, which pins the
// iteration to a consistent snapshot of the initial list. A drained result
// set is not restartable; issue a new Filter call instead.
//
// When an ordering is set the full snapshot is drained on first use, since
// the server returns objects in name order only.
//
// ResultSets are not safe for concurrent use.
type ResultSet struct {
	mapper     *Mapper
	modelType  *model.ModelType
	namespace  string
	selector   string
	clientSide map[string]interface{}
	orderBy    []string
	pageSize   int64

	buf           []*Instance
	continueToken string
	started       bool
	exhausted     bool
}

// Next returns the next matching instance, fetching further pages as needed.
// It returns io.EOF when the snapshot is drained.
func (rs *ResultSet) Next(ctx context.Context) (*Instance, error) {
	if len(rs.orderBy) > 0 && !rs.started {
		if err := rs.drainAndSort(ctx); err != nil {
			return nil, err
		}
	}

	for len(rs.buf) == 0 {
		if rs.exhausted {
			return nil, io.EOF
		}
		if err := rs.fetchPage(ctx); err != nil {
			return nil, err
		}
	}

	inst := rs.buf[0]
	rs.buf = rs.buf[1:]
	return inst, nil
}

// Collect drains the result set into a slice.
func (rs *ResultSet) Collect(ctx context.Context) ([]*Instance, error) {
	var out []*Instance
	for {
		inst, err := rs.Next(ctx)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
}

// fetchPage retrieves the next page, decodes it and applies the client-side
// criteria. A page may contribute zero instances when every object on it is
// filtered out; Next loops until the snapshot yields one or runs out.
func (rs *ResultSet) fetchPage(ctx context.Context) error {
	rs.started = true

	m := rs.modelType
	list, err := rs.mapper.client.List(ctx, m.GVR(), rs.namespace, k8s.ListOptions{
		LabelSelector: rs.selector,
		Limit:         rs.pageSize,
		Continue:      rs.continueToken,
	})
	if err != nil {
		return rs.mapper.classify(err, m, rs.namespace, "")
	}

	rs.continueToken = list.GetContinue()
	if rs.continueToken == "" {
		rs.exhausted = true
	}

	for i := range list.Items {
		obj := &list.Items[i]
		if len(rs.clientSide) > 0 && !matchesCriteria(obj, rs.clientSide) {
			continue
		}
		rs.buf = append(rs.buf, decodeManifest(m, obj))
	}
	return nil
}

// drainAndSort pulls the entire snapshot into the buffer and applies the
// ordering, later fields first so earlier ones dominate.
func (rs *ResultSet) drainAndSort(ctx context.Context) error {
	for !rs.exhausted {
		if err := rs.fetchPage(ctx); err != nil {
			return err
		}
	}

	for i := len(rs.orderBy) - 1; i >= 0; i-- {
		field := rs.orderBy[i]
		descending := strings.HasPrefix(field, "-")
		field = strings.TrimPrefix(field, "-")

		sort.SliceStable(rs.buf, func(a, b int) bool {
			cmp := compareValues(orderValue(rs.buf[a], field), orderValue(rs.buf[b], field))
			if descending {
				return cmp > 0
			}
			return cmp < 0
		})
	}
	return nil
}

// orderValue extracts a sort key from an instance: the leading path segment
// is a field name, the rest traverses into structured values (e.g.
// "metadata_labels.app").
func orderValue(inst *Instance, path string) interface{} {
	parts := strings.Split(path, ".")
	value, ok := inst.Get(parts[0])
	if !ok {
		return nil
	}
	for _, part := range parts[1:] {
		switch m := value.(type) {
		case map[string]interface{}:
			value = m[part]
		case map[string]string:
			value = m[part]
		default:
			return nil
		}
	}
	return value
}

// compareValues orders two sort keys: nil sorts first, numbers compare
// numerically, everything else by string representation.
func compareValues(a, b interface{}) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}

	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}

	return strings.Compare(fmt.Sprintf("%v", a), fmt.Sprintf("%v", b))
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
