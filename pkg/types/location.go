package types

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
)

// ============================================================================
//                              Location - 环坐标
// ============================================================================

// Location 节点在一维环上的抽象坐标，取值为闭区间 [0, 1] 内的实数
//
// 环的周长为 1，0 与 1 在环上重合。零值表示坐标 0.0，是合法值。
type Location struct {
	v float64
}

// Distance 两个 Location 之间较短弧的长度，取值 [0, 0.5]
//
// 与 Location 使用相同的表示，因此共享排序、相等与哈希语义。
type Distance = Location

// LocationFromFloat 校验并构造 Location
//
// value 必须是有限值且位于 [0, 1]；不做截断，越界直接返回 ErrInvalidLocation。
func LocationFromFloat(value float64) (Location, error) {
	if math.IsNaN(value) || value < 0 || value > 1 {
		return Location{}, fmt.Errorf("%w: %v", ErrInvalidLocation, value)
	}
	// -0.0 与 0.0 相等但位模式不同，统一为 +0 以保证 Bits 与相等一致
	if value == 0 {
		value = 0
	}
	return Location{v: value}, nil
}

// MustLocation 与 LocationFromFloat 相同，但在非法值时 panic
//
// 仅用于常量与测试。
func MustLocation(value float64) Location {
	loc, err := LocationFromFloat(value)
	if err != nil {
		panic(err)
	}
	return loc
}

// ParseLocation 从字符串解析 Location
func ParseLocation(s string) (Location, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Location{}, fmt.Errorf("%w: %q", ErrInvalidLocation, s)
	}
	return LocationFromFloat(f)
}

// RandomLocation 在 [0, 1) 上均匀采样一个坐标
func RandomLocation() Location {
	return Location{v: rand.Float64()}
}

// RandomLocationFrom 使用给定随机源采样坐标，用于可复现的模拟
func RandomLocationFrom(r *rand.Rand) Location {
	return Location{v: r.Float64()}
}

// Float64 返回底层数值
func (l Location) Float64() float64 {
	return l.v
}

// Distance 计算到另一个坐标的环上距离
//
// d = |a - b|；d < 0.5 时返回 d，否则返回 1 - d。
func (l Location) Distance(other Location) Distance {
	d := math.Abs(l.v - other.v)
	if d < 0.5 {
		return Location{v: d}
	}
	return Location{v: 1 - d}
}

// Compare 比较两个坐标，返回 -1 / 0 / 1
func (l Location) Compare(other Location) int {
	switch {
	case l.v < other.v:
		return -1
	case l.v > other.v:
		return 1
	default:
		return 0
	}
}

// Less 判断 l 是否严格小于 other
func (l Location) Less(other Location) bool {
	return l.v < other.v
}

// Equal 判断两个坐标是否相等
func (l Location) Equal(other Location) bool {
	return l.v == other.v
}

// Bits 返回 IEEE-754 位模式，作为哈希键使用
//
// 构造时已排除 NaN 并归一化 -0，因此 Bits 相等当且仅当 Equal。
func (l Location) Bits() uint64 {
	return math.Float64bits(l.v)
}

// LocationFromBits 从位模式恢复坐标，同样经过校验
func LocationFromBits(bits uint64) (Location, error) {
	return LocationFromFloat(math.Float64frombits(bits))
}

// String 返回十进制字符串表示
func (l Location) String() string {
	return strconv.FormatFloat(l.v, 'g', -1, 64)
}

// MarshalJSON 以 JSON 数字输出
func (l Location) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.v)
}

// UnmarshalJSON 从 JSON 数字解析，并执行与 LocationFromFloat 相同的校验
func (l *Location) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLocation, err)
	}
	loc, err := LocationFromFloat(f)
	if err != nil {
		return err
	}
	*l = loc
	return nil
}

// MarshalText 实现 encoding.TextMarshaler
func (l Location) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (l *Location) UnmarshalText(text []byte) error {
	loc, err := ParseLocation(string(text))
	if err != nil {
		return err
	}
	*l = loc
	return nil
}
