package model

// 宠物属性名，健康门槛检查按此顺序返回最紧急的短板
const (
	AttrHunger      = "hunger"
	AttrMood        = "mood"
	AttrStamina     = "stamina"
	AttrCleanliness = "cleanliness"
	AttrHealth      = "health"
)

const (
	AttributeMin = 0
	AttributeMax = 100
)

// swagger:model Pet
type Pet struct {
	BaseModel
	UserID      uint   `gorm:"index;not null" json:"userId"`
	Name        string `gorm:"size:100;not null" json:"name"`
	Level       int    `gorm:"default:1" json:"level"`
	Experience  int    `gorm:"default:0" json:"experience"`
	Hunger      int    `gorm:"default:100" json:"hunger"`
	Mood        int    `gorm:"default:100" json:"mood"`
	Stamina     int    `gorm:"default:100" json:"stamina"`
	Cleanliness int    `gorm:"default:100" json:"cleanliness"`
	Health      int    `gorm:"default:100" json:"health"`
	Avatar      string `gorm:"size:255" json:"avatar"`
}

func (Pet) TableName() string {
	return "pets"
}

func clampAttribute(v int) int {
	if v < AttributeMin {
		return AttributeMin
	}
	if v > AttributeMax {
		return AttributeMax
	}
	return v
}

// ClampAttributes 将五项属性截断到 [0,100]
func (p *Pet) ClampAttributes() {
	p.Hunger = clampAttribute(p.Hunger)
	p.Mood = clampAttribute(p.Mood)
	p.Stamina = clampAttribute(p.Stamina)
	p.Cleanliness = clampAttribute(p.Cleanliness)
	p.Health = clampAttribute(p.Health)
}

// restoreHealthIfFullyCared 四项基础属性同时满格时健康值回满
func (p *Pet) restoreHealthIfFullyCared() {
	if p.Hunger == AttributeMax && p.Mood == AttributeMax &&
		p.Stamina == AttributeMax && p.Cleanliness == AttributeMax {
		p.Health = AttributeMax
	}
}

// ApplyAdventureOutcome 按冒险结果施加固定属性增减，先加减后截断
func (p *Pet) ApplyAdventureOutcome(isWin bool) {
	p.Hunger -= 20
	p.Stamina -= 20
	p.Cleanliness -= 20
	if isWin {
		p.Mood += 30
	} else {
		p.Mood -= 30
	}
	p.ClampAttributes()
	p.restoreHealthIfFullyCared()
}

// ApplyCare 施加一次照料动作的属性变化并截断
func (p *Pet) ApplyCare(hunger, mood, stamina, cleanliness int) {
	p.Hunger += hunger
	p.Mood += mood
	p.Stamina += stamina
	p.Cleanliness += cleanliness
	p.ClampAttributes()
	p.restoreHealthIfFullyCared()
}

// BlockingAttribute 返回第一个为 0 的属性，全部非 0 时返回空串。
// 检查顺序（饥饿、心情、体力、清洁、健康）是前端文案约定，不能改。
func (p *Pet) BlockingAttribute() string {
	checks := []struct {
		name  string
		value int
	}{
		{AttrHunger, p.Hunger},
		{AttrMood, p.Mood},
		{AttrStamina, p.Stamina},
		{AttrCleanliness, p.Cleanliness},
		{AttrHealth, p.Health},
	}
	for _, c := range checks {
		if c.value == 0 {
			return c.name
		}
	}
	return ""
}
