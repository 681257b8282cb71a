package transform

// topicInfo maps a survey prefix to a published dataset.
type topicInfo struct {
	Slug        string
	Description string
}

// surveyTopics maps survey prefixes to human-readable topics. An unmapped
// prefix causes that survey's rows to be skipped.
var surveyTopics = map[string]topicInfo{
	"CU": {"consumer_prices", "Inflation for urban consumers - measures price changes for goods and services purchased by households"},
	"CW": {"consumer_prices_workers", "Inflation for urban wage earners and clerical workers - subset of CPI for working households"},
	"SU": {"consumer_prices_chained", "Chained inflation index - accounts for consumer substitution when prices change"},
	"AP": {"average_prices", "Retail prices for common consumer goods like food, fuel, and household items"},
	"WP": {"producer_prices_commodities", "Wholesale prices for raw materials and commodities before retail markup"},
	"PC": {"producer_prices_industry", "Prices received by domestic producers for their output by industry"},
	"CE": {"employment_national", "Jobs, hours, and earnings across US industries from employer payroll data"},
	"SM": {"employment_state", "Jobs and wages by state and metro area from employer payroll data"},
	"LA": {"unemployment_local", "Unemployment rates for states, counties, and metro areas"},
	"LN": {"labor_force", "Civilian labor force participation, employment, and unemployment from household survey"},
	"LE": {"employment_situation", "Monthly employment and unemployment by demographics (age, gender, race)"},
	"LU": {"union_membership", "Workers represented by unions and covered by collective bargaining"},
	"BD": {"business_dynamics", "Job creation and destruction from business openings, closings, and expansions"},
	"JT": {"job_openings", "Job openings, hires, quits, and layoffs from employer surveys (JOLTS)"},
	"CI": {"employment_cost_index", "Changes in employer labor costs including wages and benefits"},
	"CM": {"employer_costs", "Employer spending on wages, salaries, and benefits per hour worked"},
	"OE": {"occupational_employment", "Employment counts and wages by detailed occupation"},
	"WM": {"modeled_wages", "Wage estimates for occupations in areas with limited survey data"},
	"TU": {"time_use", "How Americans spend their time - work, leisure, childcare, household activities"},
	"PR": {"productivity", "Output per hour worked and unit labor costs by sector"},
	"IP": {"international_prices", "Price changes for goods entering and leaving the US (imports/exports)"},
	"EI": {"employment_projections", "10-year forecasts of employment by occupation and industry"},
	"CX": {"consumer_expenditure", "How households allocate spending across categories"},
	"FM": {"mass_layoffs", "Large-scale layoff events and workers affected (discontinued 2013)"},
	"OR": {"occupational_requirements", "Physical demands and educational requirements by occupation"},
	"EN": {"qcew", "Quarterly employment and wages by county, industry, and ownership from employer tax records"},
}

// allDimensions lists every candidate dimension column, scanned for
// variance in dataset order.
var allDimensions = []string{
	"date",
	"seasonality",
	"area",
	"area_type",
	"industry",
	"occupation",
	"demographic_age",
	"demographic_gender",
	"demographic_race",
	"demographic_education",
	"unit",
}

// dimensionDescriptions documents dimension columns kept in a schema.
var dimensionDescriptions = map[string]string{
	"seasonality":           "Seasonal adjustment status",
	"area":                  "Geographic area name",
	"area_type":             "Type of geographic area (nation, state, metro, etc.)",
	"industry":              "Industry classification",
	"occupation":            "Occupation classification",
	"demographic_age":       "Age group",
	"demographic_gender":    "Gender",
	"demographic_race":      "Race/ethnicity",
	"demographic_education": "Education level",
	"unit":                  "Unit of measurement (percent, index, thousands, dollars, hours, rate)",
}
