package entity

// RequirementStatus 物料需求的判定结果
const (
	RequirementReady     = "ready"      // 有足够的精确尺寸库存
	RequirementCutNeeded = "cut_needed" // 精确尺寸不足，但有更大的板可切
	RequirementMissing   = "missing"    // 无可用库存
)

// MaterialRequirement 一张订单对某种物料（含尺寸）的汇总需求。
// 按需计算，不落库。同一目录定义不同尺寸是两条独立需求。
type MaterialRequirement struct {
	ItemDefinitionID string       `json:"item_definition_id"`
	Name             string       `json:"name"`
	Category         ItemCategory `json:"category"`
	Quantity         float64      `json:"quantity"`
	Width            *float64     `json:"width,omitempty"`
	Height           *float64     `json:"height,omitempty"`
	Status           string       `json:"status"`
	ExactCount       int64        `json:"exact_count"`
	LargerCount      int64        `json:"larger_count"`
}
