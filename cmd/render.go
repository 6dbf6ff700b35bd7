package cmd

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/giygas/protocolos-api/prescription"
	"github.com/giygas/protocolos-api/protocolparser/entities"
)

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// printPrescription writes the patient block and both administration tables
func printPrescription(w io.Writer, v prescription.View) error {
	age := prescription.NotInformed
	if v.Patient.Age != nil {
		age = strconv.Itoa(*v.Patient.Age) + " anos"
	}

	tw := newTabWriter(w)
	fmt.Fprintf(tw, "Prescrição:\t%s\n", v.ID)
	fmt.Fprintf(tw, "Emitida em:\t%s\n", v.IssuedOnDisplay)
	fmt.Fprintf(tw, "Paciente:\t%s\n", v.Patient.Name)
	fmt.Fprintf(tw, "Prontuário:\t%s\n", v.Patient.MedicalRecord)
	fmt.Fprintf(tw, "Diagnóstico:\t%s\n", v.Patient.Diagnosis)
	fmt.Fprintf(tw, "CID:\t%s\n", prescription.OrNotInformed(v.Patient.CID))
	fmt.Fprintf(tw, "Idade:\t%s\n", age)
	fmt.Fprintf(tw, "Peso / Altura:\t%g kg / %g cm\n", v.Patient.WeightKg, v.Patient.HeightCm)
	fmt.Fprintf(tw, "Superfície corporal:\t%s\n", v.Patient.BSADisplay)
	fmt.Fprintf(tw, "Protocolo:\t%s\n", v.Protocol.Name)
	fmt.Fprintf(tw, "Diagnóstico associado:\t%s\n", prescription.OrNotInformed(v.Protocol.AssociatedDiagnosis))
	fmt.Fprintf(tw, "Potencial emetogênico:\t%s\n", prescription.OrNotInformed(v.Protocol.EmetogenicPotential))
	fmt.Fprintf(tw, "Início do ciclo:\t%s\n", v.CycleStartDisplay)
	if err := tw.Flush(); err != nil {
		return err
	}

	if err := printEntries(w, "PRÉ-MEDICAÇÃO", v.PreMedication); err != nil {
		return err
	}
	return printEntries(w, "TRATAMENTO", v.Treatment)
}

// printEntries writes one administration table
func printEntries(w io.Writer, title string, entries []prescription.EntryView) error {
	if _, err := fmt.Fprintf(w, "\n%s\n", title); err != nil {
		return err
	}
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, prescription.NoItems)
		return err
	}

	tw := newTabWriter(w)
	fmt.Fprintln(tw, "ITEM\tDATA\tDIA\tMEDICAMENTO\tDOSE\tDOSE REF.\tVIA\tTEMPO\tCICLO")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Item, e.DateDisplay, e.Day, e.Medication, e.Dose, e.ReferenceDose, e.Route, e.InfusionTime, e.Cycle)
	}
	return tw.Flush()
}

// printProtocolRows writes the rows of one protocol as they appear in the sheet
func printProtocolRows(w io.Writer, rows []entities.ProtocolRow) error {
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "TIPO\tDIAS\tMEDICAMENTO\tDOSE\tVIA\tTEMPO\tCICLOS")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			row.SubtypeRaw, row.Days, row.Medication, row.Dose, row.Route, row.InfusionTime, row.Cycles)
	}
	return tw.Flush()
}

// printCIDs writes CID codes and meanings
func printCIDs(w io.Writer, cids []entities.CID) error {
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "CID\tSIGNIFICADO")
	for _, cid := range cids {
		fmt.Fprintf(tw, "%s\t%s\n", cid.Code, cid.Meaning)
	}
	return tw.Flush()
}
