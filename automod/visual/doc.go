// Extraction of text embedded in images (OCR), so rules can match advertising and monetary text inside photos.
package visual
