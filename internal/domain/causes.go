package domain

// CauseGroup is a contiguous, independently normalized slice of the cause
// vector. End is exclusive.
type CauseGroup struct {
	Name  string
	Start int
	End   int
}

// Len returns the number of causes in the group.
func (g CauseGroup) Len() int { return g.End - g.Start }

var (
	GroupPregnancy   = CauseGroup{Name: "pregnancy", Start: 0, End: 3}
	GroupCause       = CauseGroup{Name: "cause", Start: 3, End: 64}
	GroupComorbidity = CauseGroup{Name: "comcat", Start: 64, End: 70}

	// CauseGroups lists the groups in table column order.
	CauseGroups = []CauseGroup{GroupPregnancy, GroupCause, GroupComorbidity}
)

// Pregnancy status labels.
const (
	PregnancyNotApplicable = "n/a"
	PregnancyIndeterminate = "indeterminate"
	PregnancyNotPregnant   = "Not pregnant or recently delivered"
	PregnancyEnded         = "Pregnancy ended within 6 weeks of death"
	PregnancyAtDeath       = "Pregnant at death"

	ComorbidityMultiple = "Multiple"
	Undetermined        = "Undetermined"
)

// CauseNames holds the display text of every cause column, in table order.
var CauseNames = [NumCauses]string{
	// Group A: pregnancy status
	PregnancyNotPregnant,
	PregnancyEnded,
	PregnancyAtDeath,

	// Group B: causes of death
	"Sepsis (non-obstetric)",
	"Acute resp infect incl pneumonia",
	"HIV/AIDS related death",
	"Diarrhoeal diseases",
	"Malaria",
	"Measles",
	"Meningitis and encephalitis",
	"Tetanus",
	"Pulmonary tuberculosis",
	"Pertussis",
	"Haemorrhagic fever (non-dengue)",
	"Dengue fever",
	"Other and unspecified infect dis",
	"Oral neoplasms",
	"Digestive neoplasms",
	"Respiratory neoplasms",
	"Breast neoplasms",
	"Reproductive neoplasms MF",
	"Other and unspecified neoplasms",
	"Severe anaemia",
	"Severe malnutrition",
	"Diabetes mellitus",
	"Acute cardiac disease",
	"Stroke",
	"Sickle cell with crisis",
	"Other and unspecified cardiac dis",
	"Chronic obstructive pulmonary dis",
	"Asthma",
	"Acute abdomen",
	"Liver cirrhosis",
	"Renal failure",
	"Epilepsy",
	"Ectopic pregnancy",
	"Abortion-related death",
	"Pregnancy-induced hypertension",
	"Obstetric haemorrhage",
	"Obstructed labour",
	"Pregnancy-related sepsis",
	"Anaemia of pregnancy",
	"Ruptured uterus",
	"Other and unspecified maternal CoD",
	"Prematurity",
	"Birth asphyxia",
	"Neonatal pneumonia",
	"Neonatal sepsis",
	"Congenital malformation",
	"Other and unspecified neonatal CoD",
	"Fresh stillbirth",
	"Macerated stillbirth",
	"Road traffic accident",
	"Other transport accident",
	"Accid fall",
	"Accid drowning and submersion",
	"Accid expos to smoke fire & flame",
	"Contact with venomous plant/animal",
	"Accid poisoning & noxious subs",
	"Intentional self-harm",
	"Assault",
	"Exposure to force of nature",
	"Other and unspecified external CoD",
	"Other and unspecified NCD",

	// Group C: circumstances of mortality
	"Culture",
	"Emergency",
	"Health systems",
	"Inevitable",
	"Knowledge",
	"Resources",
}

// GroupNames returns the cause names of one group.
func GroupNames(g CauseGroup) []string {
	return CauseNames[g.Start:g.End]
}
