package tutoring

import "time"

// Models lists every persisted type, in migration order.
func Models() []interface{} {
	return []interface{}{
		&Student{},
		&Question{},
		&GradeRecord{},
		&Worksheet{},
		&LessonPlan{},
		&Session{},
		&ScheduleTemplate{},
		&GenerationClaim{},
	}
}

// Stamp returns t in UTC at microsecond precision, the finest Postgres stores.
func Stamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
