package core

// catalog.go registers the fixed schema catalog shared with mapping UIs.
// Labels and example values are part of the wire vocabulary; keep them in
// sync with the template workbook.

func init() {
	registerBasicInfo()
	registerEventRecords()
	registerMeasurementRecords()
	registerCodeMappings()
}

func registerBasicInfo() {
	Register(SchemaDefinition{
		Purpose: PurposeBasicInfo,
		Text:    "羊隻基礎資料 (Master Data)",
		Fields: []FieldSpec{
			{Key: "EarNum", Label: "耳號", Required: true, Example: "0009AL088089"},
			{Key: "Breed", Label: "品種 (代碼)", Example: "AL 或 11"},
			{Key: "Sex", Label: "性別 (代碼)", Example: "1 或 M"},
			{Key: "BirthDate", Label: "出生日期", Example: "2008/7/23", Type: FieldDate},
			{Key: "Sire", Label: "父號", Example: "父羊耳號"},
			{Key: "Dam", Label: "母號", Example: "母羊耳號"},
			{Key: "BirWei", Label: "出生體重(kg)", Example: "3.5", Type: FieldNumeric},
			{Key: "SireBre", Label: "父系品種", Example: "AL"},
			{Key: "DamBre", Label: "母系品種", Example: "SA"},
			{Key: "MoveCau", Label: "異動原因", Example: "05"},
			{Key: "MoveDate", Label: "異動日期", Example: "2012/1/2", Type: FieldDate},
			{Key: "Class", Label: "等級", Example: "A"},
			{Key: "LittleSize", Label: "產仔數/窩", Example: "2", Type: FieldInteger},
			{Key: "Lactation", Label: "泌乳胎次", Example: "1", Type: FieldInteger},
			{Key: "ManaClas", Label: "管理分類", Example: "Class 1"},
			{Key: "FarmNum", Label: "牧場編號", Example: "0009"},
			{Key: "RUni", Label: "唯一記錄編號", Example: "5171"},
		},
	})
}

func registerEventRecords() {
	Register(SchemaDefinition{
		Purpose: PurposeKiddingRecord,
		Text:    "分娩記錄 (Kidding Record)",
		Fields: []FieldSpec{
			{Key: "EarNum", Label: "母羊耳號", Required: true, Example: "0009AL077032"},
			{Key: "YeanDate", Label: "分娩日期", Required: true, Example: "2009/4/19", Type: FieldDate},
			{Key: "KidNum", Label: "仔羊耳號", Example: "0009AL099027"},
			{Key: "KidSex", Label: "仔羊性別 (代碼)", Example: "2 或 F"},
		},
	})
	Register(SchemaDefinition{
		Purpose: PurposeMatingRecord,
		Text:    "配種記錄 (Mating Record)",
		Fields: []FieldSpec{
			{Key: "EarNum", Label: "母羊耳號", Required: true, Example: "0009FX10K706"},
			{Key: "Mat_date", Label: "配種日期", Required: true, Example: "2012/1/18", Type: FieldDate},
			{Key: "Mat_grouM_Sire", Label: "配種公羊耳號", Example: "0009AL070351"},
		},
	})
	Register(SchemaDefinition{
		Purpose: PurposeYeanRecord,
		Text:    "泌乳/乾乳記錄 (Lactation/Dry-off Record)",
		Fields: []FieldSpec{
			{Key: "EarNum", Label: "母羊耳號", Required: true, Example: "0009FX10K706"},
			{Key: "YeanDate", Label: "泌乳開始日期(分娩)", Required: true, Example: "2012/6/12", Type: FieldDate},
			{Key: "DryOffDate", Label: "乾乳日期", Example: "1900/1/1", Type: FieldDate},
			{Key: "Lactation", Label: "泌乳胎次", Example: "2", Type: FieldInteger},
		},
	})
}

func registerMeasurementRecords() {
	Register(SchemaDefinition{
		Purpose: PurposeWeightRecord,
		Text:    "體重記錄 (Weight Record)",
		Fields: []FieldSpec{
			{Key: "EarNum", Label: "耳號", Required: true, Example: "0007NU15..."},
			{Key: "MeaDate", Label: "測量日期", Required: true, Example: "2015/8/11", Type: FieldDate},
			{Key: "Weight", Label: "體重 (公斤)", Required: true, Example: "27.2", Type: FieldNumeric},
		},
	})
	Register(SchemaDefinition{
		Purpose: PurposeMilkYieldRecord,
		Text:    "產乳量記錄 (Milk Yield Record)",
		Fields: []FieldSpec{
			{Key: "EarNum", Label: "耳號", Required: true, Example: "0009AL071268"},
			{Key: "MeaDate", Label: "測量日期", Required: true, Example: "2010/11/10", Type: FieldDate},
			{Key: "Milk", Label: "產乳量 (公斤)", Required: true, Example: "4.1", Type: FieldNumeric},
		},
	})
	Register(SchemaDefinition{
		Purpose: PurposeMilkAnalysisRecord,
		Text:    "乳成分分析記錄 (Milk Analysis Record)",
		Fields: []FieldSpec{
			{Key: "EarNum", Label: "耳號", Required: true, Example: "0009AL077032"},
			{Key: "MeaDate", Label: "測量日期", Required: true, Example: "2019/1/1", Type: FieldDate},
			{Key: "AMFat", Label: "乳脂率 (%)", Example: "3.29", Type: FieldNumeric},
		},
	})
}

func registerCodeMappings() {
	Register(SchemaDefinition{
		Purpose: PurposeBreedMapping,
		Text:    "品種代碼對照表 (Breed Mapping)",
		Fields: []FieldSpec{
			{Key: "Code", Label: "品種代碼", Required: true, Example: "AL 或 11", Aliases: []string{"Symbol"}},
			{Key: "Name", Label: "品種全名", Required: true, Example: "阿爾拜因", Aliases: []string{"Breed"}},
		},
	})
	Register(SchemaDefinition{
		Purpose: PurposeSexMapping,
		Text:    "性別代碼對照表 (Sex Mapping)",
		Fields: []FieldSpec{
			{Key: "Code", Label: "性別代碼", Required: true, Example: "2 或 F", Aliases: []string{"Num"}},
			{Key: "Name", Label: "性別全名", Required: true, Example: "母", Aliases: []string{"Sex"}},
		},
	})
}

// defaultSheetPurposes maps the sheet names of the standard template workbook
// to their purposes. Used in default mode.
var defaultSheetPurposes = map[string]PurposeID{
	"0009-0013A1_Basic":         PurposeBasicInfo,
	"0009-0013A4_Kidding":       PurposeKiddingRecord,
	"0009-0013A2_PubMat":        PurposeMatingRecord,
	"0009-0013A3_Yean":          PurposeYeanRecord,
	"0009-0013A9_Milk":          PurposeMilkYieldRecord,
	"0009-0013A11_MilkAnalysis": PurposeMilkAnalysisRecord,
	"S2_Breed":                  PurposeBreedMapping,
	"S7_Sex":                    PurposeSexMapping,
	ExportSheetAnimals:          PurposeBasicInfo,
}

// fieldDisplayNames maps field keys that are not unique across schemas, or
// that only appear in server responses, to a single display name.
var fieldDisplayNames = map[string]string{
	"EarNum":              "耳號",
	"BirthDate":           "出生日期",
	"Sex":                 "性別",
	"Breed":               "品種",
	"Sire":                "父號",
	"Dam":                 "母號",
	"BirWei":              "出生體重",
	"YeanDate":            "分娩日期",
	"DryOffDate":          "乾乳日期",
	"Lactation":           "泌乳胎次",
	"MeaDate":             "測量日期",
	"Weight":              "體重",
	"Milk":                "產乳量",
	"AMFat":               "乳脂率",
	"Code":                "代碼",
	"Name":                "名稱",
	"FarmNum":             "牧場編號",
	"Body_Weight_kg":      "體重",
	"milk_yield_kg_day":   "日產奶量",
	"milk_fat_percentage": "乳脂率",
	"description":         "事件描述",
	"notes":               "備註",
	"event_date":          "事件日期",
	"event_type":          "事件類型",
	"record_date":         "記錄日期",
	"record_type":         "記錄類型",
	"value":               "數值",
	"file":                "檔案",
	"rows":                "匯入資料",
	"mapping_config":      "映射設定",
}

// DisplayName returns the display name of a field key. Keys missing from the
// dictionary fall back to the first catalog label, then to the key itself.
func DisplayName(key string) string {
	if name, ok := fieldDisplayNames[key]; ok {
		return name
	}
	for _, def := range Schemas() {
		if f, ok := def.Field(key); ok {
			return f.Label
		}
	}
	return key
}

// DefaultPurposeForSheet returns the purpose a sheet gets in default mode.
// Sheets of the standard template are recognised by name; a sheet named
// after a purpose id (as in downloaded templates) gets that purpose.
func DefaultPurposeForSheet(name string) PurposeID {
	if p, ok := defaultSheetPurposes[name]; ok {
		return p
	}
	if _, err := GetSchema(PurposeID(name)); err == nil {
		return PurposeID(name)
	}
	return PurposeUnset
}
