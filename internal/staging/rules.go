package staging

// Rule text below follows AJCC v8 breast cancer staging. The prompt embeds
// these blocks verbatim; edits here change what the model is instructed to do.

const TumorStagingRules = `1. Tumor (T) Staging:
    - T1mi: tumors less than 0.1cm
    - T1a: 0.1 to 0.5 cm
    - T1b: 0.51 to 1 cm
    - T1c: 1.1 to 2 cm
    - T2: 21mm to 50mm
    - T3: bigger than 51mm
    - T4a: cancer has invaded into the chest wall (seen on imaging)
    - T4b: cancer has invaded into the skin
    - T4c: cancer has spread to both the skin and the chest wall
    - T4d: inflammatory carcinoma (reported as inflammatory in the imaging or pathology reports)`

const NodalStagingRules = `2. Node (N) Staging:
    - pN0: no cancer deposits at all
    - pN1mi: cancer deposit within at least 1 and up to 3 lymph nodes, with deposit size 0.2 to 2mm
    - pN1a: cancer deposit within at least 1 and up to 3 lymph nodes, with deposit size larger than 2mm
    - pN2a: cancer deposits within at least 4 and up to 10 lymph nodes
    - pN3a: cancer deposit within 10 or more lymph nodes
    - cN0: no signs of cancer in the lymph nodes following scans and examination
    - cN1: cancer cells have spread to one or more lymph nodes in the lower or middle part of the armpit
    - cN1mi: cancer cells in the lymph nodes are very small (micrometastases)
    - cN2a: cancer cells in the armpit are stuck together or fixed to other areas of the breast
    - cN2b: cancer cells in the lymph nodes behind the breastbone
    - cN3a: cancer cells in the lymph nodes below the collarbone
    - cN3b: cancer cells in the lymph nodes around the armpit and behind the breastbone
    - cN3c: cancer cells in the lymph nodes above the collarbone`

const ReceptorRules = `3. ER Presence will be detailed in the biopsy or final surgery pathology report. It will mention Allred score, but you can just report either POSITIVE or NEGATIVE.
4. HER2 Presence: Immunohistochemistry (IHC) will be reported as POSITIVE (3+) or NEGATIVE (0 or 1+). Occasionally it can be 2+, then use FISH report to determine if POSITIVE or NEGATIVE.`

// InsufficientInformation is the fallback value the model is instructed to
// emit when a report does not support a determination for a field.
const InsufficientInformation = "not enough information is present"
