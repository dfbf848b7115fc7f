// Package cutting 纯计算的开料引擎：给定原板和目标矩形，
// 计算一刀切（guillotine）后的目标件与余料的几何尺寸和按面积分摊的价格。
// 不做多板排样优化，每次调用只处理一块原板上的一次切割。
package cutting

import (
	"errors"
	"fmt"
)

// Direction 切割方向
type Direction string

const (
	DirectionHorizontal Direction = "horizontal" // 先沿宽度方向下刀
	DirectionVertical   Direction = "vertical"   // 先沿高度方向下刀
)

// Valid 是否为已知方向
func (d Direction) Valid() bool {
	return d == DirectionHorizontal || d == DirectionVertical
}

// MinOffcutDimension L形切割中余料任一边不大于该值（毫米）时视为废料，不入库
const MinOffcutDimension = 10.0

// ErrCutTooLarge 切割尺寸超出原板
var ErrCutTooLarge = errors.New("切割尺寸超出原板")

// Piece 一块矩形料：尺寸加价格
type Piece struct {
	Width  float64
	Height float64
	Price  float64
}

// Area 面积（平方毫米）
func (p Piece) Area() float64 {
	return p.Width * p.Height
}

// ProportionalPrice 按面积占比分摊原板价格
func ProportionalPrice(source Piece, width, height float64) float64 {
	if source.Width <= 0 || source.Height <= 0 {
		return 0
	}
	return source.Price * (width * height) / (source.Width * source.Height)
}

// GuillotineResult 两余料切割的结果。
// ConsumeWhole 表示切割尺寸与原板完全一致，整板直接消耗，无余料。
type GuillotineResult struct {
	ConsumeWhole bool
	Main         *Piece // 主余料
	Secondary    *Piece // 次余料
}

// Guillotine 手动切割：按调用方给定的方向和切割矩形计算两块余料。
//
// horizontal: 主余料 = (原宽-切宽) x 原高；切高 < 原高时产生次余料 = 切宽 x (原高-切高)。
// vertical:   主余料 = 原宽 x (原高-切高)；切宽 < 原宽时产生次余料 = (原宽-切宽) x 切高。
func Guillotine(source Piece, cutWidth, cutHeight float64, dir Direction) (*GuillotineResult, error) {
	if cutWidth <= 0 || cutHeight <= 0 {
		return nil, fmt.Errorf("切割尺寸必须为正数: %.2fx%.2f", cutWidth, cutHeight)
	}
	if !dir.Valid() {
		return nil, fmt.Errorf("未知的切割方向: %s", dir)
	}
	if cutWidth > source.Width || cutHeight > source.Height {
		return nil, fmt.Errorf("%w: 切割 %.2fx%.2f, 原板 %.2fx%.2f",
			ErrCutTooLarge, cutWidth, cutHeight, source.Width, source.Height)
	}

	// 整板消耗：尺寸完全一致，无需算账
	if cutWidth == source.Width && cutHeight == source.Height {
		return &GuillotineResult{ConsumeWhole: true}, nil
	}

	result := &GuillotineResult{}
	switch dir {
	case DirectionHorizontal:
		if mainW := source.Width - cutWidth; mainW > 0 {
			result.Main = &Piece{
				Width:  mainW,
				Height: source.Height,
				Price:  ProportionalPrice(source, mainW, source.Height),
			}
		}
		if cutHeight < source.Height {
			secH := source.Height - cutHeight
			result.Secondary = &Piece{
				Width:  cutWidth,
				Height: secH,
				Price:  ProportionalPrice(source, cutWidth, secH),
			}
		}
	case DirectionVertical:
		if mainH := source.Height - cutHeight; mainH > 0 {
			result.Main = &Piece{
				Width:  source.Width,
				Height: mainH,
				Price:  ProportionalPrice(source, source.Width, mainH),
			}
		}
		if cutWidth < source.Width {
			secW := source.Width - cutWidth
			result.Secondary = &Piece{
				Width:  secW,
				Height: cutHeight,
				Price:  ProportionalPrice(source, secW, cutHeight),
			}
		}
	}
	return result, nil
}

// LShapeResult L形切割的结果：一块目标件加 0~2 块余料
type LShapeResult struct {
	Target  Piece
	Offcuts []Piece
}

// LShape 订单配料切割：目标件固定从原板一角切出，
// 右侧余料 = (原宽-目标宽) x 原高，上方余料 = 目标宽 x (原高-目标高)。
// 任一边不大于 MinOffcutDimension 的余料直接丢弃，残值不再跟踪。
func LShape(source Piece, targetWidth, targetHeight float64) (*LShapeResult, error) {
	if targetWidth <= 0 || targetHeight <= 0 {
		return nil, fmt.Errorf("目标尺寸必须为正数: %.2fx%.2f", targetWidth, targetHeight)
	}
	if targetWidth > source.Width || targetHeight > source.Height {
		return nil, fmt.Errorf("%w: 目标 %.2fx%.2f, 原板 %.2fx%.2f",
			ErrCutTooLarge, targetWidth, targetHeight, source.Width, source.Height)
	}

	result := &LShapeResult{
		Target: Piece{
			Width:  targetWidth,
			Height: targetHeight,
			Price:  ProportionalPrice(source, targetWidth, targetHeight),
		},
	}

	rightW := source.Width - targetWidth
	if rightW > MinOffcutDimension && source.Height > MinOffcutDimension {
		result.Offcuts = append(result.Offcuts, Piece{
			Width:  rightW,
			Height: source.Height,
			Price:  ProportionalPrice(source, rightW, source.Height),
		})
	}

	topH := source.Height - targetHeight
	if topH > MinOffcutDimension && targetWidth > MinOffcutDimension {
		result.Offcuts = append(result.Offcuts, Piece{
			Width:  targetWidth,
			Height: topH,
			Price:  ProportionalPrice(source, targetWidth, topH),
		})
	}

	return result, nil
}
