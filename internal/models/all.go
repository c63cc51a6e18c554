package models

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&Department{},
		&UserInfo{},
		&UserRole{},
		&Project{},
		&ProjectDepartment{},
		&Task{},
		&TaskAssignment{},
		&Tag{},
		&TaskTag{},
		&TaskAttachment{},
		&TaskComment{},
		&Notification{},
	}
}
