package repository

import "gorm.io/gorm"

// AutoMigrate creates the tables from the GORM models. Used in development
// and tests; production schemas come from the SQL migrations, which also add
// the bookings_no_overlap exclusion constraint.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&UserModel{}, &ToolModel{}, &BookingModel{})
}
