package nn

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/YuminosukeSato/atomscale/pkg/errors"
	"github.com/YuminosukeSato/atomscale/stats"
)

// Parameterized はチェックポイントに保存される正規化パラメータを持つモジュール
type Parameterized interface {
	Parameters() map[string]stats.Value
	SetParameter(name string, v stats.Value) error
}

// Record は stats.Value の gob 表現
type Record struct {
	Kind string
	Data []float64
}

const (
	kindNone   = "none"
	kindScalar = "scalar"
	kindVector = "vector"
)

func toRecord(v stats.Value) Record {
	switch {
	case v.IsScalar():
		return Record{Kind: kindScalar, Data: v.Floats()}
	case v.IsVector():
		return Record{Kind: kindVector, Data: v.Floats()}
	default:
		return Record{Kind: kindNone}
	}
}

func (r Record) value() (stats.Value, error) {
	switch r.Kind {
	case kindNone:
		return stats.None(), nil
	case kindScalar:
		if len(r.Data) != 1 {
			return stats.None(), errors.NewValueError("checkpoint", fmt.Sprintf("scalar record with %d elements", len(r.Data)))
		}
		return stats.Scalar(r.Data[0]), nil
	case kindVector:
		return stats.Vector(r.Data), nil
	default:
		return stats.None(), errors.NewValueError("checkpoint", fmt.Sprintf("unknown record kind %q", r.Kind))
	}
}

// Checkpoint はモデル内の全正規化パラメータのスナップショット。
// キーは "<モジュール名>.<パラメータ名>" 形式。
type Checkpoint struct {
	Params map[string]Record
}

// Keys はソート済みのパラメータキーを返す
func (c *Checkpoint) Keys() []string {
	keys := make([]string, 0, len(c.Params))
	for k := range c.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Value はキーに対応する値を返す
func (c *Checkpoint) Value(key string) (stats.Value, bool) {
	r, ok := c.Params[key]
	if !ok {
		return stats.None(), false
	}
	v, err := r.value()
	if err != nil {
		return stats.None(), false
	}
	return v, true
}

// collect はモデルを辿り、Parameterized なモジュールを名前付きで列挙する
func collect(m Model) map[string]Parameterized {
	out := map[string]Parameterized{}
	var walk func(prefix string, m Model)
	walk = func(prefix string, m Model) {
		switch v := m.(type) {
		case *RescaleOutput:
			out[prefix+"rescale"] = v
			walk(prefix, v.Model)
		case *ForceOutput:
			walk(prefix, v.Func)
		case *Graph:
			for _, mod := range v.modules {
				if p, ok := mod.(Parameterized); ok {
					out[prefix+mod.Name()] = p
				}
			}
		}
	}
	walk("", m)
	return out
}

// NewCheckpoint はモデルの現在の正規化パラメータを取り出す
func NewCheckpoint(m Model) *Checkpoint {
	c := &Checkpoint{Params: map[string]Record{}}
	for name, p := range collect(m) {
		for k, v := range p.Parameters() {
			c.Params[name+"."+k] = toRecord(v)
		}
	}
	return c
}

// Restore はチェックポイントの値をモデルに書き戻す。
//
// initialize=false で構築されたモデルはプレースホルダ値を持つため、
// 保存時と同じパラメータが存在（none かどうかも含めて）している必要がある。
// 全キーを検証してから書き込み、失敗時はモデルを変更しない。
func (c *Checkpoint) Restore(m Model) error {
	type staged struct {
		target   Parameterized
		name     string
		key      string
		value    stats.Value
		previous stats.Value
	}

	targets := collect(m)
	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)

	var plan []staged
	for _, name := range names {
		p := targets[name]
		params := p.Parameters()
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			current := params[k]
			key := name + "." + k
			r, ok := c.Params[key]
			if !ok {
				return errors.NewValidationError("checkpoint", "missing parameter", key)
			}
			v, err := r.value()
			if err != nil {
				return errors.Wrapf(err, "restoring %s", key)
			}
			if v.IsNone() != current.IsNone() {
				return errors.NewValidationError("checkpoint",
					fmt.Sprintf("parameter presence differs: saved %s, model %s", v, current), key)
			}
			plan = append(plan, staged{target: p, name: k, key: key, value: v, previous: current})
		}
	}

	for i, s := range plan {
		if err := s.target.SetParameter(s.name, s.value); err != nil {
			for _, done := range plan[:i] {
				_ = done.target.SetParameter(done.name, done.previous)
			}
			return errors.Wrapf(err, "restoring %s", s.key)
		}
	}
	return nil
}

// SaveCheckpointToWriter はモデルの正規化パラメータを gob で書き出す
func SaveCheckpointToWriter(m Model, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(NewCheckpoint(m)); err != nil {
		return errors.Wrap(err, "failed to encode checkpoint")
	}
	return nil
}

// LoadCheckpointFromReader は gob チェックポイントを読み込みモデルに適用する
func LoadCheckpointFromReader(m Model, r io.Reader) error {
	var c Checkpoint
	if err := gob.NewDecoder(r).Decode(&c); err != nil {
		return errors.Wrap(err, "failed to decode checkpoint")
	}
	return c.Restore(m)
}

// SaveCheckpoint はモデルの正規化パラメータをファイルに保存する
//
// 使用例:
//
//	wrapped, _, _ := rescale.RescaleEnergyEtc(model, cfg, ds, true)
//	err := nn.SaveCheckpoint(wrapped, "rescale.gob")
func SaveCheckpoint(m Model, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	if err := SaveCheckpointToWriter(m, file); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return errors.Wrapf(err, "closing checkpoint %s", filename)
	}
	return nil
}

// LoadCheckpoint はファイルからパラメータを読み込みモデルに適用する
func LoadCheckpoint(m Model, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrap(err, "failed to open file")
	}
	defer file.Close()
	return LoadCheckpointFromReader(m, file)
}
