package usecase

// Clinical vocabulary backing query expansion. Keys are lower-cased; the
// expander builds the reverse direction (full term -> abbreviation,
// synonym -> canonical) at construction time.

var clinicalAbbreviations = map[string][]string{
	"htn":   {"hypertension"},
	"dm":    {"diabetes mellitus"},
	"t2dm":  {"type 2 diabetes mellitus"},
	"mi":    {"myocardial infarction"},
	"chf":   {"congestive heart failure"},
	"copd":  {"chronic obstructive pulmonary disease"},
	"ckd":   {"chronic kidney disease"},
	"cad":   {"coronary artery disease"},
	"cva":   {"cerebrovascular accident"},
	"tia":   {"transient ischemic attack"},
	"afib":  {"atrial fibrillation"},
	"uti":   {"urinary tract infection"},
	"dvt":   {"deep vein thrombosis"},
	"pe":    {"pulmonary embolism"},
	"gerd":  {"gastroesophageal reflux disease"},
	"cabg":  {"coronary artery bypass graft"},
	"bp":    {"blood pressure"},
	"hr":    {"heart rate"},
	"sob":   {"shortness of breath"},
	"ra":    {"rheumatoid arthritis"},
	"oa":    {"osteoarthritis"},
	"ms":    {"multiple sclerosis"},
	"chd":   {"coronary heart disease"},
	"esrd":  {"end stage renal disease"},
	"nsaid": {"nonsteroidal anti-inflammatory drug"},
	"acei":  {"angiotensin converting enzyme inhibitor"},
	"arb":   {"angiotensin receptor blocker"},
	"ccb":   {"calcium channel blocker"},
	"hba1c": {"glycated hemoglobin"},
	"ldl":   {"low density lipoprotein"},
	"hdl":   {"high density lipoprotein"},
	"bmi":   {"body mass index"},
	"egfr":  {"estimated glomerular filtration rate"},
	"ecg":   {"electrocardiogram"},
	"ekg":   {"electrocardiogram"},
	"ct":    {"computed tomography"},
	"mri":   {"magnetic resonance imaging"},
	"icu":   {"intensive care unit"},
	"ed":    {"emergency department"},
	"hx":    {"history"},
	"dx":    {"diagnosis"},
	"tx":    {"treatment"},
	"rx":    {"prescription"},
	"sx":    {"symptoms"},
}

var clinicalSynonyms = map[string][]string{
	"hypertension":          {"high blood pressure", "elevated blood pressure"},
	"heart attack":          {"myocardial infarction", "cardiac infarction"},
	"stroke":                {"cerebrovascular accident", "brain attack"},
	"diabetes":              {"diabetes mellitus", "hyperglycemia"},
	"kidney":                {"renal"},
	"liver":                 {"hepatic"},
	"heart":                 {"cardiac", "cardiovascular"},
	"lung":                  {"pulmonary", "respiratory"},
	"cancer":                {"malignancy", "neoplasm", "carcinoma"},
	"infection":             {"sepsis", "bacteremia"},
	"pain":                  {"analgesia", "discomfort"},
	"fever":                 {"pyrexia", "febrile"},
	"bleeding":              {"hemorrhage"},
	"clot":                  {"thrombus", "embolus"},
	"swelling":              {"edema"},
	"shortness of breath":   {"dyspnea", "breathlessness"},
	"high cholesterol":      {"hyperlipidemia", "dyslipidemia"},
	"obesity":               {"overweight", "elevated body mass index"},
	"guidelines":            {"recommendations", "clinical practice guidelines"},
	"medication":            {"drug therapy", "pharmacotherapy"},
	"surgery":               {"operation", "surgical procedure"},
	"elderly":               {"geriatric", "older adults"},
	"children":              {"pediatric"},
	"pregnancy":             {"obstetric", "prenatal"},
	"side effects":          {"adverse events", "adverse reactions"},
	"contraindication":      {"contraindicated"},
	"dose":                  {"dosage", "dosing"},
	"screening":             {"early detection"},
	"follow up":             {"monitoring", "surveillance"},
	"heart failure":         {"cardiac failure", "congestive heart failure"},
	"blood thinner":         {"anticoagulant"},
	"antibiotic":            {"antimicrobial"},
	"blood sugar":           {"glucose", "glycemia"},
	"irregular heartbeat":   {"arrhythmia", "atrial fibrillation"},
	"chest pain":            {"angina", "angina pectoris"},
	"difficulty swallowing": {"dysphagia"},
}
