package trialsgov

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteRegistryTemplate writes fetched studies as a registry CSV skeleton.
// The receptor and phase columns are left blank: those are curated by a human
// before the file is used for matching, since the search API does not report
// them.
func WriteRegistryTemplate(w io.Writer, studies []Study) error {
	cw := csv.NewWriter(w)
	header := []string{"Trial ID", "Condition", "Brief Title", "Eligibility", "HR Status", "HER2 Status", "Phase Type", "Lead Sponsor", "Primary Purpose"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, s := range studies {
		row := []string{s.TrialID, s.Condition, s.BriefTitle, s.Eligibility, "", "", "", s.LeadSponsor, s.PrimaryPurpose}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %s: %w", s.TrialID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
