package models

// Apartment 表示楼栋内的一套公寓，楼栋内编号唯一
type Apartment struct {
	BaseModel
	BuildingID uint   `gorm:"not null;uniqueIndex:idx_building_number" json:"building_id"`
	Number     string `gorm:"type:varchar(20);not null;uniqueIndex:idx_building_number" json:"number"` // 公寓编号，如"101"
	Block      string `gorm:"type:varchar(20)" json:"block"`                                           // 座号，如"A"
	Floor      int    `json:"floor"`

	// 关联关系
	Building  *Building  `gorm:"foreignKey:BuildingID" json:"building,omitempty"`
	Residents []Resident `gorm:"foreignKey:ApartmentID" json:"residents,omitempty"` // 公寓内的住户（一对多）
}
