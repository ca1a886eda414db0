package models

// DefaultConfig seeds the config document when the backing store is
// empty: the launch service menu, Wednesday closed, shorter Sundays.
func DefaultConfig() StoreConfig {
	return StoreConfig{
		Services: []ServiceItem{
			{ID: "1", Name: "Regular Cut", Price: 200, DurationMinutes: 60},
			{ID: "2", Name: "Cut & Black Dye", Price: 300, DurationMinutes: 60},
			{ID: "3", Name: "Blade Fade & Beard Trim", Price: 250, DurationMinutes: 60},
			{ID: "4", Name: "Machine Cut & Scissor", Price: 250, DurationMinutes: 60},
			{ID: "5", Name: "Machine Cheesecob & Beard Trim", Price: 100, DurationMinutes: 60},
			{ID: "6", Name: "Blade Cheesecob & Beard Trim", Price: 150, DurationMinutes: 60},
		},
		WeeklyHours: map[int]WorkingHours{
			0: {Start: "09:00", End: "15:00"},
			1: {Start: "09:00", End: "18:00"},
			2: {Start: "09:00", End: "18:00"},
			3: {Start: "00:00", End: "00:00", IsClosed: true},
			4: {Start: "09:00", End: "18:00"},
			5: {Start: "09:00", End: "18:00"},
			6: {Start: "09:00", End: "18:00"},
		},
		Blockouts: []Blockout{},
	}
}
