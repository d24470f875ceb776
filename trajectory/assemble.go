package trajectory

import (
	"fmt"
	"math"
)

// Assemble 沿时间轴拼接各段
// 相邻两段必须共享边界时刻；边界只保留一个采样点，取后一段的首点
// （事件分段时即 Vc = 0 的衔接状态）
func Assemble(segments ...Trajectory) (Trajectory, error) {
	if len(segments) == 0 {
		return Trajectory{}, ErrEmpty
	}
	total := 0
	for i, seg := range segments {
		if err := seg.Validate(); err != nil {
			return Trajectory{}, fmt.Errorf("segment %d: %w", i, err)
		}
		total += seg.Len()
	}

	out := Trajectory{
		T:  make([]float64, 0, total),
		Vc: make([]float64, 0, total),
		Il: make([]float64, 0, total),
	}
	for i, seg := range segments {
		if i > 0 {
			last := out.End()
			if !sameInstant(last, seg.Start()) {
				return Trajectory{}, fmt.Errorf("%w: segment %d ends at %g, segment %d starts at %g",
					ErrDiscontiguous, i-1, last, i, seg.Start())
			}
			// 丢弃前一段的边界点
			n := out.Len() - 1
			out.T, out.Vc, out.Il = out.T[:n], out.Vc[:n], out.Il[:n]
		}
		out.T = append(out.T, seg.T...)
		out.Vc = append(out.Vc, seg.Vc...)
		out.Il = append(out.Il, seg.Il...)
	}
	if out.Len() == 0 {
		return Trajectory{}, ErrEmpty
	}
	if err := out.Validate(); err != nil {
		return Trajectory{}, err
	}
	return out, nil
}

// sameInstant 两个时间相差不超过 4 ulp
func sameInstant(a, b float64) bool {
	if a == b {
		return true
	}
	scale := math.Max(math.Abs(a), math.Abs(b))
	return math.Abs(a-b) <= 4*(math.Nextafter(scale, math.Inf(1))-scale)
}
