package pricing

// Colonia (summer camp) discount tiers.
const (
	ColoniaPartialDiscount = 12 // two or more students, or two or more courses
	ColoniaFullDiscount    = 20 // two or more students and two or more courses
)

// ColoniaDiscountPercent returns the discount a family gets for the
// colonia given how many students it enrolls and how many courses they
// take in total.
func ColoniaDiscountPercent(students, totalCourses int) int {
	manyStudents := students >= 2
	manyCourses := totalCourses >= 2
	switch {
	case manyStudents && manyCourses:
		return ColoniaFullDiscount
	case manyStudents || manyCourses:
		return ColoniaPartialDiscount
	default:
		return 0
	}
}

// ColoniaQuote is the monthly colonia price for a family.
type ColoniaQuote struct {
	Students        int
	TotalCourses    int
	DiscountPercent int
	CoursePrice     int64 // per course, after discount
	MonthlyTotal    int64
	InscriptionFees int64 // one-off, not discounted
}

// QuoteColonia prices a family from the number of courses each student
// takes.
func QuoteColonia(t *Table, coursesPerStudent []int) (ColoniaQuote, error) {
	total := 0
	for _, c := range coursesPerStudent {
		if c < 0 {
			return ColoniaQuote{}, invalid("courses_per_student", c, "must be non-negative")
		}
		total += c
	}

	percent := ColoniaDiscountPercent(len(coursesPerStudent), total)
	monthly, err := ColoniaMonthlyTotal(t, coursesPerStudent, float64(percent))
	if err != nil {
		return ColoniaQuote{}, err
	}
	perCourse, err := ApplyDiscount(t.ColoniaCoursePrice(), float64(percent))
	if err != nil {
		return ColoniaQuote{}, err
	}

	return ColoniaQuote{
		Students:        len(coursesPerStudent),
		TotalCourses:    total,
		DiscountPercent: percent,
		CoursePrice:     perCourse,
		MonthlyTotal:    monthly,
		InscriptionFees: t.ColoniaInscriptionFee() * int64(len(coursesPerStudent)),
	}, nil
}

// ColoniaMonthlyTotal is every course of every student at the colonia
// course price with percent applied.
func ColoniaMonthlyTotal(t *Table, coursesPerStudent []int, percent float64) (int64, error) {
	perCourse, err := ApplyDiscount(t.ColoniaCoursePrice(), percent)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, c := range coursesPerStudent {
		if c < 0 {
			return 0, invalid("courses_per_student", c, "must be non-negative")
		}
		total += perCourse * int64(c)
	}
	return total, nil
}
