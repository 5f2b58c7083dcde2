package models

// Building 表示一栋公寓楼的信息
type Building struct {
	BaseModel
	Name    string `gorm:"type:varchar(100);not null" json:"name"`          // 楼栋名称，如"Edifício Solar"
	Code    string `gorm:"type:varchar(20);unique;not null" json:"code"`    // 楼栋编码，如"B001"
	Address string `gorm:"type:varchar(200)" json:"address"`                // 楼栋地址
	Status  string `gorm:"type:varchar(20);default:'active'" json:"status"` // 状态：active, inactive

	// 关联关系
	Apartments []Apartment `gorm:"foreignKey:BuildingID" json:"apartments,omitempty"` // 楼栋下的公寓（一对多）
	Doormen    []Doorman   `gorm:"foreignKey:BuildingID" json:"doormen,omitempty"`    // 楼栋的门卫（一对多）
}
