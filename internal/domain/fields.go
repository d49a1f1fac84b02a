package domain

import "strings"

// NoDataPlaceholder ist der explizite "keine Angaben"-Wert. Felder sind nach
// einem Commit nie leer: entweder Inhalt oder dieser Platzhalter.
const NoDataPlaceholder = "Keine Angaben"

// IsNoData meldet, ob ein Feldwert als unbelegt gilt.
func IsNoData(value string) bool {
	v := strings.TrimSpace(value)
	return v == "" || strings.EqualFold(v, NoDataPlaceholder)
}

// SessionFields sind die vier Verlaufsfelder eines Termins.
type SessionFields struct {
	CurrentStatus      string `json:"current_status"`
	ActionsTaken       string `json:"actions_taken"`
	NextSteps          string `json:"next_steps"`
	NetworkInvolvement string `json:"network_involvement"`
}

// SessionFieldNames ist die geordnete Feldspezifikation für die Extraktion.
var SessionFieldNames = []string{
	"current_status",
	"actions_taken",
	"next_steps",
	"network_involvement",
}

func (f SessionFields) Map() map[string]string {
	return map[string]string{
		"current_status":      f.CurrentStatus,
		"actions_taken":       f.ActionsTaken,
		"next_steps":          f.NextSteps,
		"network_involvement": f.NetworkInvolvement,
	}
}

// Apply setzt ein Feld per Name; false bei unbekanntem Namen.
func (f *SessionFields) Apply(name, value string) bool {
	switch name {
	case "current_status":
		f.CurrentStatus = value
	case "actions_taken":
		f.ActionsTaken = value
	case "next_steps":
		f.NextSteps = value
	case "network_involvement":
		f.NetworkInvolvement = value
	default:
		return false
	}
	return true
}

// AnamnesisFields sind die 14 Erhebungsbereiche der Anamnese.
type AnamnesisFields struct {
	HousingSituation      string `json:"housingSituation"`
	FinancialSituation    string `json:"financialSituation"`
	HealthStatus          string `json:"healthStatus"`
	ProfessionalSituation string `json:"professionalSituation"`
	FamilySituation       string `json:"familySituation"`
	ChildrenSituation     string `json:"childrenSituation"`
	ParentingSkills       string `json:"parentingSkills"`
	ChildDevelopment      string `json:"childDevelopment"`
	PsychologicalState    string `json:"psychologicalState"`
	SocialNetwork         string `json:"socialNetwork"`
	CrisesAndRisks        string `json:"crisesAndRisks"`
	GoalsAndWishes        string `json:"goalsAndWishes"`
	PreviousMeasures      string `json:"previousMeasures"`
	AdditionalNotes       string `json:"additionalNotes"`
}

var AnamnesisFieldNames = []string{
	"housingSituation",
	"financialSituation",
	"healthStatus",
	"professionalSituation",
	"familySituation",
	"childrenSituation",
	"parentingSkills",
	"childDevelopment",
	"psychologicalState",
	"socialNetwork",
	"crisesAndRisks",
	"goalsAndWishes",
	"previousMeasures",
	"additionalNotes",
}

func (f AnamnesisFields) Map() map[string]string {
	return map[string]string{
		"housingSituation":      f.HousingSituation,
		"financialSituation":    f.FinancialSituation,
		"healthStatus":          f.HealthStatus,
		"professionalSituation": f.ProfessionalSituation,
		"familySituation":       f.FamilySituation,
		"childrenSituation":     f.ChildrenSituation,
		"parentingSkills":       f.ParentingSkills,
		"childDevelopment":      f.ChildDevelopment,
		"psychologicalState":    f.PsychologicalState,
		"socialNetwork":         f.SocialNetwork,
		"crisesAndRisks":        f.CrisesAndRisks,
		"goalsAndWishes":        f.GoalsAndWishes,
		"previousMeasures":      f.PreviousMeasures,
		"additionalNotes":       f.AdditionalNotes,
	}
}

func (f *AnamnesisFields) Apply(name, value string) bool {
	switch name {
	case "housingSituation":
		f.HousingSituation = value
	case "financialSituation":
		f.FinancialSituation = value
	case "healthStatus":
		f.HealthStatus = value
	case "professionalSituation":
		f.ProfessionalSituation = value
	case "familySituation":
		f.FamilySituation = value
	case "childrenSituation":
		f.ChildrenSituation = value
	case "parentingSkills":
		f.ParentingSkills = value
	case "childDevelopment":
		f.ChildDevelopment = value
	case "psychologicalState":
		f.PsychologicalState = value
	case "socialNetwork":
		f.SocialNetwork = value
	case "crisesAndRisks":
		f.CrisesAndRisks = value
	case "goalsAndWishes":
		f.GoalsAndWishes = value
	case "previousMeasures":
		f.PreviousMeasures = value
	case "additionalNotes":
		f.AdditionalNotes = value
	default:
		return false
	}
	return true
}

// FillPlaceholders ersetzt leere Felder durch den Platzhalter, damit die
// Belegt-oder-Platzhalter-Invariante nach jedem Commit hält.
func (f AnamnesisFields) FillPlaceholders() AnamnesisFields {
	for _, name := range AnamnesisFieldNames {
		if strings.TrimSpace(f.Map()[name]) == "" {
			f.Apply(name, NoDataPlaceholder)
		}
	}
	return f
}

// ClientAttributes sind die fest aufgezählten demografischen Profilattribute.
// Dünn besetzt: leer heißt nicht erhoben, es gibt keinen Platzhalter.
type ClientAttributes struct {
	FirstName        string `json:"firstName,omitempty"`
	LastName         string `json:"lastName,omitempty"`
	Email            string `json:"email,omitempty"`
	Phone            string `json:"phone,omitempty"`
	Street           string `json:"street,omitempty"`
	ZipCode          string `json:"zipCode,omitempty"`
	City             string `json:"city,omitempty"`
	DateOfBirth      string `json:"dateOfBirth,omitempty"`
	Age              string `json:"age,omitempty"`
	Gender           string `json:"gender,omitempty"`
	MaritalStatus    string `json:"maritalStatus,omitempty"`
	Children         string `json:"children,omitempty"`
	Nationality      string `json:"nationality,omitempty"`
	GermanLevel      string `json:"germanLevel,omitempty"`
	ResidenceStatus  string `json:"residenceStatus,omitempty"`
	Occupation       string `json:"occupation,omitempty"`
	EmploymentStatus string `json:"employmentStatus,omitempty"`
}

var ClientAttributeNames = []string{
	"firstName",
	"lastName",
	"email",
	"phone",
	"street",
	"zipCode",
	"city",
	"dateOfBirth",
	"age",
	"gender",
	"maritalStatus",
	"children",
	"nationality",
	"germanLevel",
	"residenceStatus",
	"occupation",
	"employmentStatus",
}

func (a ClientAttributes) Map() map[string]string {
	return map[string]string{
		"firstName":        a.FirstName,
		"lastName":         a.LastName,
		"email":            a.Email,
		"phone":            a.Phone,
		"street":           a.Street,
		"zipCode":          a.ZipCode,
		"city":             a.City,
		"dateOfBirth":      a.DateOfBirth,
		"age":              a.Age,
		"gender":           a.Gender,
		"maritalStatus":    a.MaritalStatus,
		"children":         a.Children,
		"nationality":      a.Nationality,
		"germanLevel":      a.GermanLevel,
		"residenceStatus":  a.ResidenceStatus,
		"occupation":       a.Occupation,
		"employmentStatus": a.EmploymentStatus,
	}
}

func (a *ClientAttributes) Apply(name, value string) bool {
	switch name {
	case "firstName":
		a.FirstName = value
	case "lastName":
		a.LastName = value
	case "email":
		a.Email = value
	case "phone":
		a.Phone = value
	case "street":
		a.Street = value
	case "zipCode":
		a.ZipCode = value
	case "city":
		a.City = value
	case "dateOfBirth":
		a.DateOfBirth = value
	case "age":
		a.Age = value
	case "gender":
		a.Gender = value
	case "maritalStatus":
		a.MaritalStatus = value
	case "children":
		a.Children = value
	case "nationality":
		a.Nationality = value
	case "germanLevel":
		a.GermanLevel = value
	case "residenceStatus":
		a.ResidenceStatus = value
	case "occupation":
		a.Occupation = value
	case "employmentStatus":
		a.EmploymentStatus = value
	default:
		return false
	}
	return true
}
