package models

import "strings"

// StageTable names one manufacturing-stage table in the T3 production database.
type StageTable string

const (
	AssemblyKittingTable   StageTable = "assemblyKittingTable"
	DFTestingTable         StageTable = "DFTestingTable"
	CalibrationTable       StageTable = "calibrationTable"
	FinalTestTable         StageTable = "finalTestTable"
	CloseCaseTable         StageTable = "closeCaseTable"
	FinalInspectionTable   StageTable = "finalInspectionTable"
	PackagingTable         StageTable = "packagingTable"
	FalloutTable           StageTable = "falloutTable"
	EngineeringReworkTable StageTable = "engineeringReworkTable"
)

// Auxiliary reference tables resolved at display time.
const (
	EmployeeTable    = "employeeTable"
	FailureModeTable = "failureModeTable"
)

// Well-known column names.
const (
	FieldDBTable            = "db_table"
	FieldTransactionID      = "transactionID"
	FieldTransactionTime    = "transactionTime"
	FieldScanTime           = "scanTime"
	FieldSerialNumber       = "serialNumber"
	FieldSerialNumberUnit   = "serialNumberUnit"
	FieldEmployeeID         = "employeeID"
	FieldEmployeeName       = "employeeName"
	FieldFailureCode        = "failureCode"
	FieldFailureDescription = "failureDescription"
)

// StageTables lists every stage table in fetch order.
var StageTables = []StageTable{
	AssemblyKittingTable,
	DFTestingTable,
	CalibrationTable,
	FinalTestTable,
	CloseCaseTable,
	FinalInspectionTable,
	PackagingTable,
	FalloutTable,
	EngineeringReworkTable,
}

var stageLabels = map[StageTable]string{
	AssemblyKittingTable:   "Assembly Kitting",
	DFTestingTable:         "DF Testing",
	CalibrationTable:       "Calibration",
	FinalTestTable:         "Final Test",
	CloseCaseTable:         "Close Case",
	FinalInspectionTable:   "Final Inspection",
	PackagingTable:         "Packaging",
	FalloutTable:           "Fallout",
	EngineeringReworkTable: "Engineering Rework",
}

var columnLabels = map[string]string{
	FieldEmployeeID:         "Employee",
	"workstationID":         "Workstation ID",
	FieldFailureCode:        "Failure Code",
	FieldFailureDescription: "Failure Description",
	FieldScanTime:           "Scan Time",
	"stepResults":           "Step Results",
	"LOERRORCodes":          "LO Error Codes",
	"XERRORCodes":           "X Error Codes",
	"YERRORCodes":           "Y Error Codes",
	FieldSerialNumber:       "Serial Number",
	"serialNumberDigital":   "Digital Serial Number",
	"serialNumberAnalog":    "Analog Serial Number",
	FieldSerialNumberUnit:   "Top-Level Serial Number",
	"unitStatus":            "Unit Status",
}

// ParseStageTable returns the stage table with the given name.
func ParseStageTable(name string) (StageTable, bool) {
	t := StageTable(name)
	_, ok := stageLabels[t]
	return t, ok
}

// IsKnown reports whether t is one of the nine stage tables.
func (t StageTable) IsKnown() bool {
	_, ok := stageLabels[t]
	return ok
}

// SerialColumn returns the column holding the unit's serial number.
// Kitting and fallout key on the top-level unit serial; every other stage
// keys on serialNumber.
func (t StageTable) SerialColumn() string {
	switch t {
	case AssemblyKittingTable, FalloutTable:
		return FieldSerialNumberUnit
	default:
		return FieldSerialNumber
	}
}

// Label returns the human-readable stage name, or the raw name if unknown.
func (t StageTable) Label() string {
	if label, ok := stageLabels[t]; ok {
		return label
	}
	return string(t)
}

func (t StageTable) String() string {
	return string(t)
}

// ColumnLabel returns the human-readable label for a column, or the column
// name itself when there is no label.
func ColumnLabel(column string) string {
	if label, ok := columnLabels[column]; ok {
		return label
	}
	return column
}

// NormalizeSerialNumber trims and uppercases a serial number as entered or scanned.
func NormalizeSerialNumber(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
