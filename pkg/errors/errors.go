// Package errors はプロジェクト全体のエラーハンドリングと警告システムを提供します。
// 統計量の解決・リスケール設定で発生する失敗を構造化されたエラー型として表現します。
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// デフォルトのハンドラは標準エラー出力にログを出す
		log.Printf("atomscale-Warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler はライブラリ全体の警告ハンドラを設定します。
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
// nilを渡すと従来のハンドラに戻ります。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが設定されている場合は構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	警告型
//
// ===========================================================================

// SamplingWarning はデータセット統計のサンプリング間隔が大きすぎて
// ごく少数のフレームしか使われない場合に発生する警告です。
type SamplingWarning struct {
	Stride  int
	NFrames int
	NUsed   int
}

func (w *SamplingWarning) Error() string {
	return fmt.Sprintf("dataset statistics stride %d over %d frames uses only %d frame(s); statistics may be unreliable",
		w.Stride, w.NFrames, w.NUsed)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *SamplingWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Int("stride", w.Stride).
		Int("n_frames", w.NFrames).
		Int("n_used", w.NUsed).
		Str("type", "SamplingWarning")
}

// NewSamplingWarning は新しいSamplingWarningを作成します。
func NewSamplingWarning(stride, nFrames, nUsed int) *SamplingWarning {
	return &SamplingWarning{Stride: stride, NFrames: nFrames, NUsed: nUsed}
}

// ===========================================================================
//
//	統計量リクエストのエラー型
//
// ===========================================================================

// UnsupportedStatisticKindError は統計量リクエストの末尾トークンが
// mean / std / rms のいずれでもない場合のエラーです。
type UnsupportedStatisticKindError struct {
	Request string
	Kind    string
}

func (e *UnsupportedStatisticKindError) Error() string {
	return fmt.Sprintf("atomscale: cannot handle %q type quantity in statistic request %q (expected mean, std or rms)",
		e.Kind, e.Request)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *UnsupportedStatisticKindError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("request", e.Request).
		Str("kind", e.Kind).
		Str("type", "UnsupportedStatisticKindError")
}

// NewUnsupportedStatisticKindError は新しいUnsupportedStatisticKindErrorを作成し、スタックトレースを付与します。
func NewUnsupportedStatisticKindError(request, kind string) error {
	return errors.WithStack(&UnsupportedStatisticKindError{Request: request, Kind: kind})
}

// InvalidStatRequestError は統計量リクエストの文法が不正な場合のエラーです。
// 例えばフィールド名が空の場合や、粒度プレフィックスが重複している場合。
type InvalidStatRequestError struct {
	Request string
	Reason  string
}

func (e *InvalidStatRequestError) Error() string {
	return fmt.Sprintf("atomscale: invalid statistic request %q: %s", e.Request, e.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *InvalidStatRequestError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("request", e.Request).
		Str("reason", e.Reason).
		Str("type", "InvalidStatRequestError")
}

// NewInvalidStatRequestError は新しいInvalidStatRequestErrorを作成し、スタックトレースを付与します。
func NewInvalidStatRequestError(request, reason string) error {
	return errors.WithStack(&InvalidStatRequestError{Request: request, Reason: reason})
}

// StatisticsShapeError はデータセットが返した統計量の個数や
// タプル長がリクエストと一致しない場合のエラーです。
type StatisticsShapeError struct {
	Field    string
	Mode     string
	Expected int
	Got      int
}

func (e *StatisticsShapeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("atomscale: dataset returned %d statistic tuples, expected %d", e.Got, e.Expected)
	}
	return fmt.Sprintf("atomscale: dataset returned a %d-tuple for %s/%s, expected %d",
		e.Got, e.Field, e.Mode, e.Expected)
}

// NewStatisticsShapeError は新しいStatisticsShapeErrorを作成し、スタックトレースを付与します。
func NewStatisticsShapeError(field, mode string, expected, got int) error {
	return errors.WithStack(&StatisticsShapeError{Field: field, Mode: mode, Expected: expected, Got: got})
}

// ===========================================================================
//
//	リスケール設定のエラー型
//
// ===========================================================================

// InvalidScaleSourceTypeError はスケール/シフトの設定値が
// 文字列・数値・数列・null のいずれでもない場合のエラーです。
type InvalidScaleSourceTypeError struct {
	Key   string
	Value interface{}
}

func (e *InvalidScaleSourceTypeError) Error() string {
	return fmt.Sprintf("atomscale: invalid value for %s: %v (%T); expected a statistic request string, a number, a sequence of numbers or null",
		e.Key, e.Value, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *InvalidScaleSourceTypeError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("key", e.Key).
		Interface("value", e.Value).
		Str("value_type", fmt.Sprintf("%T", e.Value)).
		Str("type", "InvalidScaleSourceTypeError")
}

// NewInvalidScaleSourceTypeError は新しいInvalidScaleSourceTypeErrorを作成し、スタックトレースを付与します。
func NewInvalidScaleSourceTypeError(key string, value interface{}) error {
	return errors.WithStack(&InvalidScaleSourceTypeError{Key: key, Value: value})
}

// DegenerateScaleError は解決されたグローバルスケールが閾値を下回った場合のエラーです。
// ゼロに近い正規化は学習を不安定にするため、設定全体を中断します。
type DegenerateScaleError struct {
	Value     float64
	Threshold float64
}

func (e *DegenerateScaleError) Error() string {
	return fmt.Sprintf("atomscale: global energy scaling was very low: %g (threshold %g). If dataset values were used, does the dataset contain insufficient variation? Maybe try disabling global scaling with global_rescale_scale: null",
		e.Value, e.Threshold)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DegenerateScaleError) MarshalZerologObject(event *zerolog.Event) {
	event.Float64("value", e.Value).
		Float64("threshold", e.Threshold).
		Str("type", "DegenerateScaleError")
}

// NewDegenerateScaleError は新しいDegenerateScaleErrorを作成し、スタックトレースを付与します。
func NewDegenerateScaleError(value, threshold float64) error {
	return errors.WithStack(&DegenerateScaleError{Value: value, Threshold: threshold})
}

// ConflictingShiftConfigError はグローバルシフトと種ごとのシフトが同時に設定された場合のエラーです。
type ConflictingShiftConfigError struct {
	GlobalShift interface{}
}

func (e *ConflictingShiftConfigError) Error() string {
	return fmt.Sprintf("atomscale: one can only enable either global shift or per-species shift (global_rescale_shift=%v)", e.GlobalShift)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ConflictingShiftConfigError) MarshalZerologObject(event *zerolog.Event) {
	event.Interface("global_shift", e.GlobalShift).
		Str("type", "ConflictingShiftConfigError")
}

// NewConflictingShiftConfigError は新しいConflictingShiftConfigErrorを作成し、スタックトレースを付与します。
func NewConflictingShiftConfigError(globalShift interface{}) error {
	return errors.WithStack(&ConflictingShiftConfigError{GlobalShift: globalShift})
}

// ===========================================================================
//
//	汎用のエラー型
//
// ===========================================================================

// ValidationError は入力パラメータの検証に失敗した場合のエラーです。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("atomscale: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	return errors.WithStack(&ValidationError{ParamName: param, Reason: reason, Value: value})
}

// ValueError は引数の値が不適切または不正な場合に発生するエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("atomscale: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// NumericalInstabilityError は統計量にNaNやInfが含まれていた場合のエラーです。
type NumericalInstabilityError struct {
	Operation string    // 発生した操作（例: "dataset_force_rms"）
	Values    []float64 // 問題のある値
}

func (e *NumericalInstabilityError) Error() string {
	valStr := ""
	for i, v := range e.Values {
		if i > 0 {
			valStr += ", "
		}
		if i >= 5 {
			valStr += "..."
			break
		}
		valStr += fmt.Sprintf("%.6g", v)
	}
	return fmt.Sprintf("atomscale: numerical instability detected in %s. Values: [%s]", e.Operation, valStr)
}

// NewNumericalInstabilityError は新しいNumericalInstabilityErrorを作成します。
func NewNumericalInstabilityError(operation string, values []float64) error {
	return errors.WithStack(&NumericalInstabilityError{Operation: operation, Values: values})
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータセットが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrSingularMatrix は種ごとの最小二乗が解けない場合のエラーです。
	ErrSingularMatrix = New("singular matrix")
)
