package content

import (
	"fmt"

	"mergevault/pkg/core"
)

// Counter 是可合并计数器的统一内存表示 (最新 schema, v2)
// v1 时代只有裸数值，v2 加了计量单位。
type Counter struct {
	Value int64
	Unit  string
}

// counterWire 是计数器的线上格式：带版本号的 tagged variant
// v1: {"v":1, "n":N}
// v2: {"v":2, "n":N, "u":"unit"}
// 编码永远写最新版本；解码兼容所有历史版本。
type counterWire struct {
	Version int    `cbor:"v"`
	Value   int64  `cbor:"n"`
	Unit    string `cbor:"u,omitempty"`
}

const counterLatestVersion = 2

// CounterType 实现 content.Type
type CounterType struct{}

func (CounterType) Name() string { return "counter" }

// asCounter 接受 Counter 或 int64 (裸数值是常见的调用便利)
func asCounter(v any) (Counter, error) {
	switch c := v.(type) {
	case Counter:
		return c, nil
	case int64:
		return Counter{Value: c}, nil
	case int:
		return Counter{Value: int64(c)}, nil
	default:
		return Counter{}, fmt.Errorf("counter: unsupported value type %T", v)
	}
}

func (CounterType) Encode(v any) ([]byte, error) {
	c, err := asCounter(v)
	if err != nil {
		return nil, err
	}
	return core.EncodeCanonical(counterWire{
		Version: counterLatestVersion,
		Value:   c.Value,
		Unit:    c.Unit,
	})
}

func (CounterType) Decode(data []byte) (any, error) {
	var w counterWire
	if err := core.DecodeObject(data, &w); err != nil {
		return nil, fmt.Errorf("counter: decode failed: %w", err)
	}

	// 显式的升级路径：老版本在这里汇入最新表示
	switch w.Version {
	case 1:
		return Counter{Value: w.Value}, nil
	case 2:
		return Counter{Value: w.Value, Unit: w.Unit}, nil
	default:
		return nil, fmt.Errorf("counter: unknown schema version %d", w.Version)
	}
}

func (CounterType) Equal(a, b any) bool {
	ca, errA := asCounter(a)
	cb, errB := asCounter(b)
	if errA != nil || errB != nil {
		return false
	}
	return ca == cb
}

// Merge 实现“非丢失并发增减”语义：
//
//	merged = old + (ours - old) + (theirs - old)
//
// 两边相对共同基线的增量是可加且可交换的，
// 所以两次 merge 以任意顺序应用结果相同。
// old 为 nil (两边分叉前该 key 不存在) 时基线取 0。
func (t CounterType) Merge(old, ours, theirs any) (any, error) {
	co, err := asCounter(ours)
	if err != nil {
		return nil, err
	}
	ct, err := asCounter(theirs)
	if err != nil {
		return nil, err
	}

	var base Counter
	if old != nil {
		base, err = asCounter(old)
		if err != nil {
			return nil, err
		}
	}

	// 单位是普通的 LWW 不了的字段：两边都改且不一致就是冲突
	unit := base.Unit
	switch {
	case co.Unit == ct.Unit:
		unit = co.Unit
	case co.Unit == base.Unit:
		unit = ct.Unit
	case ct.Unit == base.Unit:
		unit = co.Unit
	default:
		return nil, Conflictf("counter unit diverged: %q vs %q", co.Unit, ct.Unit)
	}

	return Counter{
		Value: base.Value + (co.Value - base.Value) + (ct.Value - base.Value),
		Unit:  unit,
	}, nil
}
