package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/giygas/protocolos-api/catalog"
	"github.com/giygas/protocolos-api/metrics"
	"github.com/giygas/protocolos-api/prescription"
	"github.com/giygas/protocolos-api/schedule"
	"github.com/giygas/protocolos-api/validation"
	"github.com/spf13/cobra"
)

// scheduleFlags are the prescription fields taken from the command line
type scheduleFlags struct {
	protocol      string
	weightKg      float64
	heightCm      float64
	cycleStart    string
	birthDate     string
	patientName   string
	medicalRecord string
	diagnosis     string
	cid           string
	asJSON        bool
}

// request converts the flags, cycleStart defaults to today
func (f *scheduleFlags) request(today schedule.Date) (prescription.Request, error) {
	req := prescription.Request{
		PatientName:   f.patientName,
		MedicalRecord: f.medicalRecord,
		Diagnosis:     f.diagnosis,
		CID:           f.cid,
		WeightKg:      f.weightKg,
		HeightCm:      f.heightCm,
		Protocol:      f.protocol,
		CycleStart:    today,
	}

	if f.cycleStart != "" {
		start, err := schedule.ParseDate(f.cycleStart)
		if err != nil {
			return req, fmt.Errorf("--start: %w", err)
		}
		req.CycleStart = start
	}

	if f.birthDate != "" {
		birth, err := schedule.ParseDate(f.birthDate)
		if err != nil {
			return req, fmt.Errorf("--birth: %w", err)
		}
		req.BirthDate = birth
	}

	return req, nil
}

func newScheduleCmd(a *app) *cobra.Command {
	f := &scheduleFlags{}

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print the dated administration tables of a protocol for one patient",
		Example: `  protocolos-api schedule --protocol FOLFOX --weight 70 --height 170 --start 2024-03-01
  protocolos-api schedule -p "AC-T" --weight 62.5 --height 158 --name "Maria Silva" --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.initConsoleLogger()

			req, err := f.request(schedule.Today())
			if err != nil {
				return err
			}

			if err := validation.NewDataValidator().ValidatePrescriptionRequest(&req); err != nil {
				return err
			}

			dc, err := a.loadTables(cmd.Context())
			if err != nil {
				return err
			}

			rows := dc.GetProtocolIndex()[catalog.Key(req.Protocol)]
			p, err := prescription.Build(req, rows, schedule.Today())
			if err != nil {
				if errors.Is(err, prescription.ErrProtocolNotFound) {
					if suggestions := catalog.SuggestProtocols(dc.GetProtocolNames(), req.Protocol, 5); len(suggestions) > 0 {
						return fmt.Errorf("%w, did you mean: %v", err, suggestions)
					}
				}
				return err
			}
			metrics.ObserveSchedule("cli", len(p.PreMedication), len(p.Treatment))

			if f.asJSON {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(p.View())
			}
			return printPrescription(cmd.OutOrStdout(), p.View())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.protocol, "protocol", "p", "", "protocol name (case-insensitive)")
	flags.Float64Var(&f.weightKg, "weight", 0, "patient weight in kg")
	flags.Float64Var(&f.heightCm, "height", 0, "patient height in cm")
	flags.StringVar(&f.cycleStart, "start", "", "cycle start date, YYYY-MM-DD (default today)")
	flags.StringVar(&f.birthDate, "birth", "", "birth date, YYYY-MM-DD")
	flags.StringVar(&f.patientName, "name", "", "patient name")
	flags.StringVar(&f.medicalRecord, "record", "", "medical record number")
	flags.StringVar(&f.diagnosis, "diagnosis", "", "diagnosis")
	flags.StringVar(&f.cid, "cid", "", "CID code")
	flags.BoolVar(&f.asJSON, "json", false, "print the prescription as JSON")

	_ = cmd.MarkFlagRequired("protocol")
	_ = cmd.MarkFlagRequired("weight")
	_ = cmd.MarkFlagRequired("height")

	return cmd
}
