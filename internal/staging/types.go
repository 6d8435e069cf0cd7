package staging

// Phase is the treatment-phase category a patient is matched under.
type Phase string

const (
	PhaseMetastatic  Phase = "Metastatic"
	PhaseAdjuvant    Phase = "Adjuvant"
	PhaseNeoadjuvant Phase = "Neoadjuvant"
)

// DerivePhase maps the two intake flags to a phase. Total: every flag
// combination yields exactly one phase, metastasis dominating.
func DerivePhase(hasSurgical, hasMetastasis bool) Phase {
	if hasMetastasis {
		return PhaseMetastatic
	}
	if hasSurgical {
		return PhaseAdjuvant
	}
	return PhaseNeoadjuvant
}

// Extraction is the structured staging profile pulled out of one clinical
// record. Created once per matching attempt and never mutated afterwards.
type Extraction struct {
	TStaging   string `json:"t_staging"`
	NStaging   string `json:"n_staging"`
	ERStatus   string `json:"er_status"`
	HER2       string `json:"her2_presence"`
	Metastasis string `json:"metastasis_status"`
	Phase      Phase  `json:"phase"`
}
