package employee

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"ems/internal/domain/apperror"
	"ems/internal/domain/dates"
	"ems/internal/domain/identity"
)

const pdfDateLayout = "Jan 02, 2006"

// ExportPDF renders the employee profile. Access follows record access.
func (s *Service) ExportPDF(ctx context.Context, caller identity.Identity, id int64) ([]byte, error) {
	emp, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	out, err := RenderProfilePDF(emp)
	if err != nil {
		slog.Error("render employee pdf failed", "employeeId", id, "err", err)
		return nil, apperror.New(apperror.ErrInternal, "Error generating PDF")
	}
	return out, nil
}

func RenderProfilePDF(emp Employee) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(15, 15, 15)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 10, "Generated by Employee Management System", "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	writeHeader(pdf, tr, emp)

	section(pdf, "Personal Information")
	row(pdf, tr, "Gender:", emp.Gender)
	row(pdf, tr, "Email:", emp.Email)
	row(pdf, tr, "Personal Email:", emp.PersonalEmail)
	row(pdf, tr, "Father's Name:", emp.FatherName)
	row(pdf, tr, "Mobile:", emp.Mobile)
	row(pdf, tr, "Role:", string(emp.Role))

	section(pdf, "Address Information")
	row(pdf, tr, "Present Address:", formatAddress(emp.PresentStreet, emp.PresentCity, emp.PresentState, emp.PresentZip))
	row(pdf, tr, "Permanent Address:", formatAddress(emp.PermanentStreet, emp.PermanentCity, emp.PermanentState, emp.PermanentZip))

	if len(emp.EducationList) > 0 {
		section(pdf, "Education")
		widths := []float64{55, 65, 25, 35}
		tableHeader(pdf, widths, "Education", "Institution", "Year", "Percentage")
		for _, ed := range emp.EducationList {
			tableRow(pdf, tr, widths, ed.EducationName, ed.College, ed.Year, ed.Percentage.String()+"%")
		}
	}
	if len(emp.Certifications) > 0 {
		section(pdf, "Certifications")
		widths := []float64{70, 70, 40}
		tableHeader(pdf, widths, "Name", "Organization", "Date")
		for _, c := range emp.Certifications {
			tableRow(pdf, tr, widths, c.Name, c.Organization, formatDate(c.Date))
		}
	}
	if len(emp.Skills) > 0 {
		section(pdf, "Skills")
		pdf.SetFont("Helvetica", "", 10)
		for _, sk := range emp.Skills {
			pdf.CellFormat(0, 6, tr("• "+sk.Skill), "", 1, "L", false, 0, "")
		}
	}
	if len(emp.Experiences) > 0 {
		section(pdf, "Experience")
		widths := []float64{60, 120}
		tableHeader(pdf, widths, "Level", "Job Role")
		for _, x := range emp.Experiences {
			tableRow(pdf, tr, widths, x.Level, x.JobRole)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeHeader(pdf *gofpdf.Fpdf, tr func(string) string, emp Employee) {
	left, top := 15.0, 15.0
	const box = 35.0
	if !placePhoto(pdf, emp.ProfilePhoto, left, top, box) {
		pdf.SetDrawColor(160, 160, 160)
		pdf.Rect(left, top, box, box, "D")
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetXY(left, top+box/2-3)
		pdf.CellFormat(box, 6, "No Photo Available", "", 0, "C", false, 0, "")
	}

	x := left + box + 8
	pdf.SetXY(x, top)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "EMPLOYEE PROFILE", "", 2, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("Employee ID: %d", emp.ID), "", 2, "L", false, 0, "")
	pdf.CellFormat(0, 7, tr("Name: "+emp.FullName()), "", 2, "L", false, 0, "")
	pdf.CellFormat(0, 7, "Date of Birth: "+formatDate(emp.Dob), "", 2, "L", false, 0, "")

	pdf.SetY(top + box + 6)
	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(left, pdf.GetY(), 195, pdf.GetY())
	pdf.Ln(4)
}

func placePhoto(pdf *gofpdf.Fpdf, photo *ProfilePhoto, x, y, size float64) bool {
	if photo == nil || len(photo.Data) == 0 {
		return false
	}
	imageType := map[string]string{"image/jpeg": "JPG", "image/jpg": "JPG", "image/png": "PNG", "image/gif": "GIF"}[baseMediaType(photo.FileType)]
	if imageType == "" {
		return false
	}
	name := fmt.Sprintf("photo-%d", photo.ID)
	opts := gofpdf.ImageOptions{ImageType: imageType}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(photo.Data))
	if !pdf.Ok() {
		// A corrupt image must not fail the whole document.
		pdf.ClearError()
		return false
	}
	pdf.ImageOptions(name, x, y, size, size, false, opts, 0, "")
	return true
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetTextColor(30, 60, 110)
	pdf.CellFormat(0, 8, title, "B", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(1)
}

func row(pdf *gofpdf.Fpdf, tr func(string) string, label, value string) {
	if strings.TrimSpace(value) == "" {
		value = "N/A"
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(45, 6, label, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 6, tr(value), "", "L", false)
}

func tableHeader(pdf *gofpdf.Fpdf, widths []float64, titles ...string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(225, 230, 240)
	for i, title := range titles {
		pdf.CellFormat(widths[i], 7, title, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

func tableRow(pdf *gofpdf.Fpdf, tr func(string) string, widths []float64, cells ...string) {
	pdf.SetFont("Helvetica", "", 10)
	for i, cell := range cells {
		if strings.TrimSpace(cell) == "" {
			cell = "N/A"
		}
		pdf.CellFormat(widths[i], 7, tr(cell), "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
}

func formatDate(d *dates.Date) string {
	if d == nil || d.IsZero() {
		return "N/A"
	}
	return d.Format(pdfDateLayout)
}

func formatAddress(street, city, state, zip string) string {
	var sb strings.Builder
	if street != "" {
		sb.WriteString(street)
		sb.WriteString("\n")
	}
	sb.WriteString(city)
	if state != "" {
		if city != "" {
			sb.WriteString(", ")
		}
		sb.WriteString(state)
	}
	if zip != "" {
		sb.WriteString(" ")
		sb.WriteString(zip)
	}
	return strings.TrimSpace(sb.String())
}
