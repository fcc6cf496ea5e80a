package sri

const form103Text = `=== Page 1 ===
CÓDIGO VERIFICADOR ABC123XYZ
NÚMERO SERIAL 871234567
FECHA RECAUDACIÓN 20-05-2025
Obligación Tributaria: 1031 - DECLARACIÓN DE RETENCIONES EN LA FUENTE
Identificación: 1790012345001
Razón Social: ACME S.A.
Período Fiscal: ABRIL 2025
Tipo Declaración: ORIGINAL
Honorarios profesionales 303 1,500.00 353 150.00
Servicios donde predomina la mano de obra 307 0.00 357 0.00
Transferencia de bienes muebles 312 2,000.00 362 35.00
SUBTOTAL OPERACIONES EFECTUADAS EN EL PAÍS 349 3,500.00 399 185.00
TOTAL DE RETENCIÓN DE IMPUESTO A LA RENTA 399 + 498 499 185.00
TOTAL IMPUESTO A PAGAR 499 - 898 902 185.00
Interés por mora 903 1.25
Multa 904 0.00
TOTAL PAGADO 999 186.25
`

const form104Text = `=== Page 1 ===
CÓDIGO VERIFICADOR XYZ789
NÚMERO SERIAL 998877
FECHA RECAUDACIÓN 21-05-2025
Obligación Tributaria: 2011 DECLARACION DE IVA
Identificación: 1790012345001
Razón Social: ACME S.A.
Período Fiscal: ABRIL 2025
Tipo Declaración: ORIGINAL
Ventas locales gravadas tarifa diferente de cero 401 10,000.00 411 9,500.00 421 1,425.00
TOTAL VENTAS Y OTRAS OPERACIONES 409 10,000.00 419 9,500.00 429 1,425.00
Adquisiciones y pagos gravados tarifa diferente de cero con derecho 500 4,000.00 510 4,000.00 520 600.00
Adquisiciones y pagos gravados tarifa 0% 507 300.00 517 300.00
TOTAL ADQUISICIONES Y PAGOS 509 4,300.00
Crédito tributario aplicable en este período 564 600.00
Impuesto causado (si diferencia 499-564 es mayor que cero) 601 825.00
Retenciones en la fuente de IVA que le han sido efectuadas en este período 609 75.00
SUBTOTAL A PAGAR 620 750.00
Retención del 10% 721 0.00
Retención del 30% 723 45.00
Retención del 100% 729 12.50
TOTAL IMPUESTO RETENIDO 721 + 723 + 729 799 57.50
TOTAL IMPUESTO A PAGAR POR RETENCIÓN 859 57.50
TOTAL CONSOLIDADO DE IMPUESTO AL VALOR AGREGADO 620 + 859 899 807.50
TOTAL PAGADO 999 807.50
`
