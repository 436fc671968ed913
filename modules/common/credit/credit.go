package credit

import (
	"log"
	"math"
	"sync"

	"quel-shorts-studio/modules/common/config"
)

// Item - 과금 항목
type Item string

const (
	ItemText    Item = "text"
	ItemImage   Item = "image"
	ItemAudio   Item = "audio"
	ItemCompute Item = "compute"
)

// unitsPerDollar keeps amounts in integer ten-thousandths so sums stay exact.
const unitsPerDollar = 10000

// PriceTable - 단계별 고정 비용 (USD)
type PriceTable struct {
	Text    float64 `json:"text"`
	Image   float64 `json:"image"`
	Audio   float64 `json:"audio"`
	Compute float64 `json:"compute"`
}

// DefaultPrices - 기본 단가
func DefaultPrices() PriceTable {
	return PriceTable{Text: 0.05, Image: 0.10, Audio: 0.05, Compute: 0.30}
}

// PricesFromConfig - 환경변수 단가
func PricesFromConfig(cfg *config.Config) PriceTable {
	return PriceTable{
		Text:    cfg.CostText,
		Image:   cfg.CostImage,
		Audio:   cfg.CostAudio,
		Compute: cfg.CostCompute,
	}
}

func (p PriceTable) priceOf(item Item) float64 {
	switch item {
	case ItemText:
		return p.Text
	case ItemImage:
		return p.Image
	case ItemAudio:
		return p.Audio
	case ItemCompute:
		return p.Compute
	}
	return 0
}

// Estimate - 조각 k개 기준 게시물 1건 예상 비용
func Estimate(p PriceTable, fragments int) float64 {
	m := NewMeter(p)
	m.Charge(ItemText)
	for i := 0; i < fragments; i++ {
		m.Charge(ItemImage)
		m.Charge(ItemAudio)
	}
	m.Charge(ItemCompute)
	return m.Total()
}

// Meter accumulates a running cost total. The total never decreases and no
// per-item breakdown is kept.
type Meter struct {
	prices PriceTable
	mu     sync.Mutex
	units  int64
}

func NewMeter(p PriceTable) *Meter {
	return &Meter{prices: p}
}

// Charge - 항목 비용 추가 후 누적 합계 반환
func (m *Meter) Charge(item Item) float64 {
	amount := toUnits(m.prices.priceOf(item))
	if amount < 0 {
		log.Printf("⚠️  [Credit] Ignoring negative price for %s", item)
		amount = 0
	}

	m.mu.Lock()
	m.units += amount
	total := m.units
	m.mu.Unlock()

	return fromUnits(total)
}

// Total - 누적 합계
func (m *Meter) Total() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fromUnits(m.units)
}

// Sum adds dollar amounts without float drift.
func Sum(amounts ...float64) float64 {
	var units int64
	for _, a := range amounts {
		units += toUnits(a)
	}
	return fromUnits(units)
}

func toUnits(dollars float64) int64 {
	return int64(math.Round(dollars * unitsPerDollar))
}

func fromUnits(units int64) float64 {
	return float64(units) / unitsPerDollar
}
