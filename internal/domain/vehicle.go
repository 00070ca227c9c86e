package domain

// CarModel is read-only reference data for battery capacity and connector compatibility.
type CarModel struct {
	ID                 string          `json:"id" gorm:"primaryKey"`
	Brand              string          `json:"brand"`
	Model              string          `json:"model"`
	BatteryCapacityKWh float64         `json:"battery_capacity_kwh"`
	ConnectorTypes     []ConnectorType `json:"connector_types" gorm:"many2many:car_model_connector_types"`
}

// Supports reports whether the model can charge on the given connector type.
func (m *CarModel) Supports(connectorTypeID string) bool {
	for _, ct := range m.ConnectorTypes {
		if ct.ID == connectorTypeID {
			return true
		}
	}
	return false
}

// Vehicle is a user's car.
type Vehicle struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	UserID       string    `json:"user_id" gorm:"index"`
	CarModelID   string    `json:"car_model_id"`
	CarModel     *CarModel `json:"car_model,omitempty" gorm:"foreignKey:CarModelID"`
	LicensePlate string    `json:"license_plate"`
}

// Supports reports whether the vehicle can charge on the given connector type.
func (v *Vehicle) Supports(connectorTypeID string) bool {
	return v.CarModel != nil && v.CarModel.Supports(connectorTypeID)
}

// BatteryCapacityKWh returns the capacity of the vehicle's model.
func (v *Vehicle) BatteryCapacityKWh() float64 {
	if v.CarModel == nil {
		return 0
	}
	return v.CarModel.BatteryCapacityKWh
}
