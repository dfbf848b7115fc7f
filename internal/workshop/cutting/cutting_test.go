package cutting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuillotineHorizontal(t *testing.T) {
	source := Piece{Width: 1000, Height: 2000, Price: 1000}

	result, err := Guillotine(source, 500, 1000, DirectionHorizontal)
	require.NoError(t, err)
	assert.False(t, result.ConsumeWhole)

	require.NotNil(t, result.Main)
	assert.Equal(t, 500.0, result.Main.Width)
	assert.Equal(t, 2000.0, result.Main.Height)
	assert.InDelta(t, 500.0, result.Main.Price, 0.001)

	require.NotNil(t, result.Secondary)
	assert.Equal(t, 500.0, result.Secondary.Width)
	assert.Equal(t, 1000.0, result.Secondary.Height)
	assert.InDelta(t, 250.0, result.Secondary.Price, 0.001)
}

func TestGuillotineVertical(t *testing.T) {
	source := Piece{Width: 1000, Height: 2000, Price: 1000}

	result, err := Guillotine(source, 600, 800, DirectionVertical)
	require.NoError(t, err)

	require.NotNil(t, result.Main)
	assert.Equal(t, 1000.0, result.Main.Width)
	assert.Equal(t, 1200.0, result.Main.Height)

	require.NotNil(t, result.Secondary)
	assert.Equal(t, 400.0, result.Secondary.Width)
	assert.Equal(t, 800.0, result.Secondary.Height)
}

func TestGuillotineNoSecondaryWhenFullHeight(t *testing.T) {
	source := Piece{Width: 1000, Height: 2000, Price: 1000}

	// 切高等于原高，水平切割只剩主余料
	result, err := Guillotine(source, 400, 2000, DirectionHorizontal)
	require.NoError(t, err)
	require.NotNil(t, result.Main)
	assert.Equal(t, 600.0, result.Main.Width)
	assert.Nil(t, result.Secondary)
}

func TestGuillotineConsumeWhole(t *testing.T) {
	source := Piece{Width: 1000, Height: 2000, Price: 1000}

	result, err := Guillotine(source, 1000, 2000, DirectionHorizontal)
	require.NoError(t, err)
	assert.True(t, result.ConsumeWhole)
	assert.Nil(t, result.Main)
	assert.Nil(t, result.Secondary)

	// 方向不影响整板消耗
	result, err = Guillotine(source, 1000, 2000, DirectionVertical)
	require.NoError(t, err)
	assert.True(t, result.ConsumeWhole)
}

func TestGuillotineValidation(t *testing.T) {
	source := Piece{Width: 1000, Height: 2000, Price: 1000}

	_, err := Guillotine(source, 1001, 500, DirectionHorizontal)
	assert.ErrorIs(t, err, ErrCutTooLarge)

	_, err = Guillotine(source, 500, 2001, DirectionVertical)
	assert.ErrorIs(t, err, ErrCutTooLarge)

	_, err = Guillotine(source, 0, 500, DirectionHorizontal)
	assert.Error(t, err)

	_, err = Guillotine(source, 500, 500, Direction("diagonal"))
	assert.Error(t, err)
}

func TestGuillotineAreaConservation(t *testing.T) {
	source := Piece{Width: 1220, Height: 2440, Price: 380}

	cases := []struct {
		name      string
		cutW, cutH float64
		dir       Direction
	}{
		{"horizontal partial", 600, 1200, DirectionHorizontal},
		{"vertical partial", 600, 1200, DirectionVertical},
		{"horizontal full height", 600, 2440, DirectionHorizontal},
		{"vertical full width", 1220, 1200, DirectionVertical},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := Guillotine(source, tc.cutW, tc.cutH, tc.dir)
			require.NoError(t, err)

			total := tc.cutW * tc.cutH
			priceTotal := ProportionalPrice(source, tc.cutW, tc.cutH)
			if result.Main != nil {
				total += result.Main.Area()
				priceTotal += result.Main.Price
			}
			if result.Secondary != nil {
				total += result.Secondary.Area()
				priceTotal += result.Secondary.Price
			}
			// 两余料切割不丢弃任何料，面积与价格严格守恒
			assert.InDelta(t, source.Area(), total, 0.001)
			assert.InDelta(t, source.Price, priceTotal, 0.001)
		})
	}
}

func TestLShape(t *testing.T) {
	source := Piece{Width: 1000, Height: 2000, Price: 1000}

	result, err := LShape(source, 400, 600)
	require.NoError(t, err)

	assert.Equal(t, 400.0, result.Target.Width)
	assert.Equal(t, 600.0, result.Target.Height)
	assert.InDelta(t, 120.0, result.Target.Price, 0.001)

	require.Len(t, result.Offcuts, 2)
	// 右侧余料
	assert.Equal(t, 600.0, result.Offcuts[0].Width)
	assert.Equal(t, 2000.0, result.Offcuts[0].Height)
	// 上方余料
	assert.Equal(t, 400.0, result.Offcuts[1].Width)
	assert.Equal(t, 1400.0, result.Offcuts[1].Height)

	// 丢弃为零时面积守恒
	total := result.Target.Area()
	for _, o := range result.Offcuts {
		total += o.Area()
	}
	assert.InDelta(t, source.Area(), total, 0.001)
}

func TestLShapeMinOffcut(t *testing.T) {
	source := Piece{Width: 1000, Height: 1000, Price: 100}

	// 右侧只剩 5mm 窄条，上方高度为 0，两块都丢弃
	result, err := LShape(source, 995, 1000)
	require.NoError(t, err)
	assert.Empty(t, result.Offcuts)

	// 恰好等于阈值也丢弃
	result, err = LShape(source, 990, 990)
	require.NoError(t, err)
	assert.Empty(t, result.Offcuts)

	// 超过阈值才保留
	result, err = LShape(source, 980, 980)
	require.NoError(t, err)
	assert.Len(t, result.Offcuts, 2)
}

func TestLShapeValidation(t *testing.T) {
	source := Piece{Width: 500, Height: 500, Price: 50}

	_, err := LShape(source, 501, 100)
	assert.ErrorIs(t, err, ErrCutTooLarge)

	_, err = LShape(source, 100, 501)
	assert.ErrorIs(t, err, ErrCutTooLarge)

	_, err = LShape(source, -1, 100)
	assert.Error(t, err)
}

func TestProportionalPriceDegenerate(t *testing.T) {
	// 配件类库存尺寸可能为零，分摊价格直接归零而不是除零
	assert.Equal(t, 0.0, ProportionalPrice(Piece{Width: 0, Height: 0, Price: 10}, 0, 0))
}
